package features

import (
	"strings"

	"github.com/Iron-Ham/hookbus/internal/event"
	"github.com/Iron-Ham/hookbus/internal/events"
)

// ChatResource is the pack resource ChatFilter reads.
const ChatResource = "chat/filter.yaml"

// DefaultChatReply is sent back to a player whose message was blocked.
const DefaultChatReply = "Your message was not sent: please keep chat friendly."

// ChatSettings configure ChatFilter.
type ChatSettings struct {
	Words []string `resource:"words"`
	Reply string   `resource:"reply"`
}

// ChatFilter blocks chat messages containing listed words. The sender gets
// the configured reply instead of the broadcast.
type ChatFilter struct {
	words     []string
	reply     string
	delivered []string
}

// NewChatFilter creates a filter with no words.
func NewChatFilter() *ChatFilter {
	f := &ChatFilter{}
	f.Configure(ChatSettings{})
	return f
}

func (f *ChatFilter) Name() string { return "chat-filter" }
func (f *ChatFilter) Bus() string  { return event.ServerBus }

// Configure replaces the filter's settings.
func (f *ChatFilter) Configure(s ChatSettings) {
	f.words = f.words[:0]
	for _, w := range s.Words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			f.words = append(f.words, w)
		}
	}
	f.reply = s.Reply
	if f.reply == "" {
		f.reply = DefaultChatReply
	}
}

// Install implements Feature.
func (f *ChatFilter) Install(r event.Registrar) {
	onResource(r, f.Name(), ChatResource, func(e *events.ResourceLoadEvent) error {
		var s ChatSettings
		if err := decodeResource(e, &s); err != nil {
			return err
		}
		f.Configure(s)
		return nil
	})

	event.Register(r, event.PhasePre, func(e *events.ChatMessageEvent) {
		if f.blocked(e.Message) {
			e.CancelWith(f.reply)
		}
	}, event.WithLabel("chat-filter/check"))

	event.Register(r, event.PhasePost, func(e *events.ChatMessageEvent) {
		if !e.IsCancelled() {
			f.delivered = append(f.delivered, e.Player.Name+": "+e.Message)
		}
	}, event.WithLabel("chat-filter/record"))
}

func (f *ChatFilter) blocked(msg string) bool {
	msg = strings.ToLower(msg)
	for _, w := range f.words {
		if strings.Contains(msg, w) {
			return true
		}
	}
	return false
}

// Delivered returns the messages that passed the filter.
func (f *ChatFilter) Delivered() []string {
	return f.delivered
}

package features

import (
	"strings"

	"github.com/Iron-Ham/hookbus/internal/event"
	"github.com/Iron-Ham/hookbus/internal/events"
	"github.com/Iron-Ham/hookbus/internal/logging"
)

// JoinResource is the pack resource JoinGate reads.
const JoinResource = "join.yaml"

// Default messages.
const (
	DefaultGreeting   = "Welcome, {player}!"
	BannedReason      = "You are banned from this server."
	ServerFullReason  = "The server is full."
	placeholderPlayer = "{player}"
)

// JoinSettings configure JoinGate.
type JoinSettings struct {
	Banned     []string `resource:"banned"`
	Greeting   string   `resource:"greeting"`
	MaxPlayers int      `resource:"max_players"` // 0 means unlimited
}

// JoinGate rejects banned players and those over the player cap in
// PhaseJoinInitialized, and greets admitted players in PhasePost.
type JoinGate struct {
	logger    *logging.Logger
	settings  JoinSettings
	banned    map[string]bool
	online    map[string]bool
	greetings []string
}

// NewJoinGate creates a JoinGate with default settings.
func NewJoinGate(logger *logging.Logger) *JoinGate {
	if logger == nil {
		logger = logging.NopLogger()
	}
	g := &JoinGate{
		logger: logger.With("feature", "join-gate"),
		online: make(map[string]bool),
	}
	g.Configure(JoinSettings{Greeting: DefaultGreeting})
	return g
}

func (g *JoinGate) Name() string { return "join-gate" }
func (g *JoinGate) Bus() string  { return event.ServerBus }

// Configure replaces the gate's settings.
func (g *JoinGate) Configure(s JoinSettings) {
	if s.Greeting == "" {
		s.Greeting = DefaultGreeting
	}
	g.settings = s
	g.banned = make(map[string]bool, len(s.Banned))
	for _, name := range s.Banned {
		g.banned[strings.ToLower(name)] = true
	}
}

// Install implements Feature.
func (g *JoinGate) Install(r event.Registrar) {
	onResource(r, g.Name(), JoinResource, func(e *events.ResourceLoadEvent) error {
		var s JoinSettings
		if err := decodeResource(e, &s); err != nil {
			return err
		}
		g.Configure(s)
		return nil
	})

	event.Register(r, events.PhaseJoinInitialized, func(e *events.PlayerJoinEvent) {
		switch {
		case g.banned[strings.ToLower(e.Player.Name)]:
			e.Deny(BannedReason)
		case g.settings.MaxPlayers > 0 && len(g.online) >= g.settings.MaxPlayers:
			e.Deny(ServerFullReason)
		}
	}, event.WithLabel("join-gate/admit"))

	event.Register(r, event.PhasePost, func(e *events.PlayerJoinEvent) {
		if e.IsCancelled() {
			g.logger.Info("join denied", "player", e.Player.Name, "reason", e.Reason)
			return
		}
		g.online[e.Player.Name] = true
		g.greetings = append(g.greetings, strings.ReplaceAll(g.settings.Greeting, placeholderPlayer, e.Player.Name))
	}, event.WithLabel("join-gate/greet"))
}

// Leave marks a player as offline.
func (g *JoinGate) Leave(name string) {
	delete(g.online, name)
}

// Online returns the number of admitted players.
func (g *JoinGate) Online() int {
	return len(g.online)
}

// Greetings returns the greetings sent so far, oldest first.
func (g *JoinGate) Greetings() []string {
	return g.greetings
}

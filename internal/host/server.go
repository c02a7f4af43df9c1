// Package host contains the producers that turn host activity into
// broadcasts: the game server and the render client. Each producer owns one
// bus and one loop; its methods must run on that loop's goroutine.
package host

import (
	"fmt"
	"time"

	"github.com/Iron-Ham/hookbus/internal/event"
	"github.com/Iron-Ham/hookbus/internal/events"
	"github.com/Iron-Ham/hookbus/internal/logging"
	"github.com/Iron-Ham/hookbus/internal/loop"
	"github.com/Iron-Ham/hookbus/internal/reload"
)

// Config holds the settings shared by both producers.
type Config struct {
	QueueSize    int
	TickInterval time.Duration
}

// Server produces server-side events.
type Server struct {
	bus      *event.Bus
	loop     *loop.Loop
	reloader *reload.Reloader
	journal  *Journal
	logger   *logging.Logger
	tick     uint64
}

// NewServer creates a server producing on bus. Its loop ticks every
// cfg.TickInterval, broadcasting a ServerTickEvent each time.
func NewServer(bus *event.Bus, cfg Config, journal *Journal, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NopLogger()
	}
	s := &Server{
		bus:     bus,
		journal: journal,
		logger:  logger.WithBus(bus.Name()),
	}
	opts := []loop.Option{loop.WithLogger(logger), loop.WithQueueSize(cfg.QueueSize)}
	if cfg.TickInterval > 0 {
		opts = append(opts, loop.WithTick(cfg.TickInterval, func(uint64) { s.Tick() }))
	}
	s.loop = loop.New(bus.Name(), opts...)
	return s
}

// Bus returns the server bus.
func (s *Server) Bus() *event.Bus {
	return s.bus
}

// Loop returns the loop that owns the server bus.
func (s *Server) Loop() *loop.Loop {
	return s.loop
}

// SetReloader attaches the reloader used by Reload.
func (s *Server) SetReloader(r *reload.Reloader) {
	s.reloader = r
}

// Join admits or rejects a connecting player. It returns whether the player
// was admitted and, if not, the reason.
func (s *Server) Join(p events.Player) (bool, string) {
	ev := events.NewPlayerJoinEvent(p)
	s.bus.Broadcast(ev, events.PhaseJoinInitialized, event.PhasePost)

	if ev.IsCancelled() {
		s.journal.add(s.bus.Name(), ev.Type(), p.Name, "denied: "+ev.Reason)
		return false, ev.Reason
	}
	s.journal.add(s.bus.Name(), ev.Type(), p.Name, "admitted")
	return true, ""
}

// Chat handles a chat message. It returns whether the message was broadcast
// and, if not, the reply sent back to the sender.
func (s *Server) Chat(p events.Player, msg string) (bool, string) {
	ev := events.NewChatMessageEvent(p, msg)
	s.bus.Broadcast(ev, event.PhasePre)

	if ev.IsCancelled() {
		s.journal.add(s.bus.Name(), ev.Type(), p.Name, fmt.Sprintf("blocked: %q", ev.Result()))
		return false, ev.Result()
	}
	s.bus.Broadcast(ev, event.PhasePost)
	s.journal.add(s.bus.Name(), ev.Type(), p.Name, fmt.Sprintf("sent: %q", msg))
	return true, ""
}

// BreakBlock handles a player breaking a block and returns whether it broke.
func (s *Server) BreakBlock(p events.Player, pos events.BlockPos, block string) bool {
	ev := events.NewBlockBreakEvent(p, pos, block)
	s.bus.Broadcast(ev, event.PhasePre)

	subject := fmt.Sprintf("%s %s@%d,%d,%d", p.Name, block, pos.X, pos.Y, pos.Z)
	if ev.IsCancelled() {
		s.journal.add(s.bus.Name(), ev.Type(), subject, "kept")
		return false
	}
	s.bus.Broadcast(ev, event.PhasePost)
	s.journal.add(s.bus.Name(), ev.Type(), subject, "broken")
	return true
}

// Tick advances the server by one tick and returns the new tick number.
func (s *Server) Tick() uint64 {
	s.tick++
	s.bus.Broadcast(events.NewServerTickEvent(s.tick))
	return s.tick
}

// Ticks returns the current tick number.
func (s *Server) Ticks() uint64 {
	return s.tick
}

// Reload runs a resource reload pass. Without a reloader it does nothing.
func (s *Server) Reload() (*events.ReloadEvent, error) {
	if s.reloader == nil {
		s.logger.Debug("reload requested without a pack")
		return nil, nil
	}
	ev, err := s.reloader.Reload()
	if err != nil {
		s.journal.add(s.bus.Name(), events.TypeReload, "", "failed: "+err.Error())
		return ev, err
	}
	s.journal.add(s.bus.Name(), ev.Type(), ev.PackDir,
		fmt.Sprintf("loaded %d, skipped %d, failed %d", ev.Loaded, ev.Skipped, ev.Failed))
	return ev, nil
}

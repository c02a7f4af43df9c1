package host

import (
	"strconv"
	"strings"
	"time"

	"github.com/Iron-Ham/hookbus/internal/event"
	"github.com/Iron-Ham/hookbus/internal/events"
	"github.com/Iron-Ham/hookbus/internal/logging"
	"github.com/Iron-Ham/hookbus/internal/loop"
)

// Client produces client-side render events.
type Client struct {
	bus     *event.Bus
	loop    *loop.Loop
	journal *Journal
	frame   uint64
	last    time.Time
	tickLen time.Duration
}

// NewClient creates a client producing on bus. With a tick interval set, its
// loop renders one frame per interval.
func NewClient(bus *event.Bus, cfg Config, journal *Journal, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.NopLogger()
	}
	c := &Client{
		bus:     bus,
		journal: journal,
		tickLen: cfg.TickInterval,
	}
	opts := []loop.Option{loop.WithLogger(logger), loop.WithQueueSize(cfg.QueueSize)}
	if cfg.TickInterval > 0 {
		opts = append(opts, loop.WithTick(cfg.TickInterval, func(uint64) { c.Render() }))
	}
	c.loop = loop.New(bus.Name(), opts...)
	return c
}

// Bus returns the client bus.
func (c *Client) Bus() *event.Bus {
	return c.bus
}

// Loop returns the loop that owns the client bus.
func (c *Client) Loop() *loop.Loop {
	return c.loop
}

// Render draws one frame and returns its draw calls.
func (c *Client) Render() []string {
	c.frame++
	ev := events.NewRenderEvent(c.frame, c.partialTicks())
	c.bus.Broadcast(ev, events.PhaseRenderWorld, events.PhaseRenderOverlay)

	draws := ev.Draws()
	c.journal.add(c.bus.Name(), ev.Type(), "frame "+strconv.FormatUint(c.frame, 10), strings.Join(draws, ", "))
	return draws
}

// Frames returns the number of frames rendered.
func (c *Client) Frames() uint64 {
	return c.frame
}

func (c *Client) partialTicks() float64 {
	now := time.Now()
	defer func() { c.last = now }()
	if c.last.IsZero() || c.tickLen <= 0 {
		return 0
	}
	p := float64(now.Sub(c.last)) / float64(c.tickLen)
	if p > 1 {
		p = 1
	}
	return p
}

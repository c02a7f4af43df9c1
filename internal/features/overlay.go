package features

import (
	"fmt"

	"github.com/Iron-Ham/hookbus/internal/event"
	"github.com/Iron-Ham/hookbus/internal/events"
)

// Overlay draws the world and a banner on the client.
type Overlay struct {
	Banner string
	frames uint64
}

// NewOverlay creates an Overlay with no banner.
func NewOverlay() *Overlay {
	return &Overlay{}
}

func (o *Overlay) Name() string { return "overlay" }
func (o *Overlay) Bus() string  { return event.ClientBus }

// Install implements Feature.
func (o *Overlay) Install(r event.Registrar) {
	event.Register(r, events.PhaseRenderWorld, func(e *events.RenderEvent) {
		e.Draw("terrain")
	}, event.WithLabel("overlay/world"))

	event.Register(r, events.PhaseRenderOverlay, func(e *events.RenderEvent) {
		o.frames++
		e.Draw(fmt.Sprintf("hud:frame=%d", e.Frame))
		if o.Banner != "" {
			e.Draw("banner:" + o.Banner)
		}
	}, event.WithLabel("overlay/hud"))
}

// Frames returns the number of frames the overlay has drawn.
func (o *Overlay) Frames() uint64 {
	return o.frames
}

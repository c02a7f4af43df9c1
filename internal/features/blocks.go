package features

import (
	"strings"

	"github.com/Iron-Ham/hookbus/internal/event"
	"github.com/Iron-Ham/hookbus/internal/events"
)

// BlockResource is the pack resource BlockGuard reads.
const BlockResource = "blocks/protect.toml"

// BlockSettings configure BlockGuard.
type BlockSettings struct {
	Blocks []string `resource:"blocks"`
}

// BlockGuard keeps protected blocks from being broken.
type BlockGuard struct {
	protected map[string]bool
	broken    map[string]int
	denied    int
}

// NewBlockGuard creates a guard protecting bedrock.
func NewBlockGuard() *BlockGuard {
	g := &BlockGuard{broken: make(map[string]int)}
	g.Configure(BlockSettings{Blocks: []string{"bedrock"}})
	return g
}

func (g *BlockGuard) Name() string { return "block-guard" }
func (g *BlockGuard) Bus() string  { return event.ServerBus }

// Configure replaces the set of protected blocks.
func (g *BlockGuard) Configure(s BlockSettings) {
	g.protected = make(map[string]bool, len(s.Blocks))
	for _, b := range s.Blocks {
		g.protected[strings.ToLower(b)] = true
	}
}

// Install implements Feature.
func (g *BlockGuard) Install(r event.Registrar) {
	onResource(r, g.Name(), BlockResource, func(e *events.ResourceLoadEvent) error {
		var s BlockSettings
		if err := decodeResource(e, &s); err != nil {
			return err
		}
		g.Configure(s)
		return nil
	})

	event.Register(r, event.PhasePre, func(e *events.BlockBreakEvent) {
		if g.protected[strings.ToLower(e.Block)] {
			e.Cancel()
			g.denied++
		}
	}, event.WithLabel("block-guard/protect"))

	event.Register(r, event.PhasePost, func(e *events.BlockBreakEvent) {
		g.broken[e.Block]++
	}, event.WithLabel("block-guard/count"))
}

// Broken returns how many blocks of the given type were broken.
func (g *BlockGuard) Broken(block string) int {
	return g.broken[block]
}

// Denied returns how many break attempts were refused.
func (g *BlockGuard) Denied() int {
	return g.denied
}

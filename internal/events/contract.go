package events

import "github.com/Iron-Ham/hookbus/internal/event"

// Contract documents how a producer broadcasts one event kind.
type Contract struct {
	Type        EventType
	Kind        event.Kind
	Bus         string
	Phases      []event.Phase
	Cancellable bool
	Result      string // Go type of the typed result, empty if none
	Description string
}

// Contracts returns the phase contract of every host event kind.
func Contracts() []Contract {
	return []Contract{
		{
			Type:        TypePlayerJoin,
			Kind:        event.KindOf[*PlayerJoinEvent](),
			Bus:         event.ServerBus,
			Phases:      []event.Phase{PhaseJoinInitialized, event.PhasePost},
			Cancellable: true,
			Description: "cancel in join_initialized to reject the player",
		},
		{
			Type:        TypeChatMessage,
			Kind:        event.KindOf[*ChatMessageEvent](),
			Bus:         event.ServerBus,
			Phases:      []event.Phase{event.PhasePre, event.PhasePost},
			Cancellable: true,
			Result:      "string",
			Description: "CancelWith in pre replaces delivery with a reply to the sender",
		},
		{
			Type:        TypeBlockBreak,
			Kind:        event.KindOf[*BlockBreakEvent](),
			Bus:         event.ServerBus,
			Phases:      []event.Phase{event.PhasePre, event.PhasePost},
			Cancellable: true,
			Description: "cancel in pre to keep the block",
		},
		{
			Type:        TypeServerTick,
			Kind:        event.KindOf[*ServerTickEvent](),
			Bus:         event.ServerBus,
			Phases:      []event.Phase{event.PhaseDefault},
			Description: "once per server tick",
		},
		{
			Type:        TypeReload,
			Kind:        event.KindOf[*ReloadEvent](),
			Bus:         event.ServerBus,
			Phases:      []event.Phase{event.PhasePre, event.PhasePost},
			Description: "brackets a resource pack reload",
		},
		{
			Type:        TypeResourceLoad,
			Kind:        event.KindOf[*ResourceLoadEvent](),
			Bus:         event.ServerBus,
			Phases:      []event.Phase{event.PhaseDefault},
			Cancellable: true,
			Description: "one per resource during a reload; cancel to skip",
		},
		{
			Type:        TypeRender,
			Kind:        event.KindOf[*RenderEvent](),
			Bus:         event.ClientBus,
			Phases:      []event.Phase{PhaseRenderWorld, PhaseRenderOverlay},
			Description: "once per client frame",
		},
	}
}

// ContractFor returns the contract for an event type.
func ContractFor(t EventType) (Contract, bool) {
	for _, c := range Contracts() {
		if c.Type == t {
			return c, true
		}
	}
	return Contract{}, false
}

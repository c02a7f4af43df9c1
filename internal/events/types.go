// Package events defines the host event kinds broadcast on the server and
// client buses, together with the phase contract each producer follows.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/Iron-Ham/hookbus/internal/event"
)

// EventType is a stable, human-readable identifier for an event kind. It is
// used in logs and CLI output; dispatch itself keys on the Go type.
type EventType string

// Server-side event types
const (
	// TypePlayerJoin indicates a player is connecting
	TypePlayerJoin EventType = "player.join"
	// TypeChatMessage indicates a player sent a chat message
	TypeChatMessage EventType = "chat.message"
	// TypeBlockBreak indicates a player is breaking a block
	TypeBlockBreak EventType = "block.break"
	// TypeServerTick indicates one server tick elapsed
	TypeServerTick EventType = "server.tick"
)

// Resource reload event types
const (
	// TypeReload brackets a full resource pack reload
	TypeReload EventType = "reload"
	// TypeResourceLoad indicates one resource file is about to be applied
	TypeResourceLoad EventType = "reload.resource"
)

// Client-side event types
const (
	// TypeRender indicates a frame is being drawn
	TypeRender EventType = "client.render"
)

// Host-specific phases. The generic ones (pre, default, post) live in the
// event package.
var (
	// PhaseJoinInitialized runs once the player's connection state exists
	// but before they are admitted to the world.
	PhaseJoinInitialized = event.PhaseOf("join_initialized")
	// PhaseRenderWorld runs while world geometry is drawn.
	PhaseRenderWorld = event.PhaseOf("render_world")
	// PhaseRenderOverlay runs after the world, for HUD and overlays.
	PhaseRenderOverlay = event.PhaseOf("render_overlay")
)

// BaseEvent provides common fields for all events.
// Concrete event types should embed this struct.
type BaseEvent struct {
	eventType EventType
	timestamp time.Time
}

// Type returns the event type identifier
func (e *BaseEvent) Type() EventType {
	return e.eventType
}

// Timestamp returns when the event was created
func (e *BaseEvent) Timestamp() time.Time {
	return e.timestamp
}

// NewBaseEvent creates a new BaseEvent with the current timestamp
func NewBaseEvent(eventType EventType) BaseEvent {
	return BaseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// Player identifies a connected player.
type Player struct {
	ID   uuid.UUID
	Name string
}

// NewOfflinePlayer returns a player whose ID is derived from the name, the
// way offline-mode servers assign identities.
func NewOfflinePlayer(name string) Player {
	return Player{
		ID:   uuid.NewMD5(uuid.NameSpaceOID, []byte("OfflinePlayer:"+name)),
		Name: name,
	}
}

// String returns the player name.
func (p Player) String() string {
	return p.Name
}

// -----------------------------------------------------------------------------
// Server Events
// -----------------------------------------------------------------------------

// PlayerJoinEvent is broadcast in PhaseJoinInitialized and then PhasePost.
// Cancelling it in PhaseJoinInitialized rejects the connection.
type PlayerJoinEvent struct {
	BaseEvent
	event.Cancelable
	Player Player
	Reason string // Disconnect message when the join is denied
}

// NewPlayerJoinEvent creates a new PlayerJoinEvent
func NewPlayerJoinEvent(player Player) *PlayerJoinEvent {
	return &PlayerJoinEvent{
		BaseEvent: NewBaseEvent(TypePlayerJoin),
		Player:    player,
	}
}

// Deny cancels the join with a reason shown to the player. The first reason
// given is kept.
func (e *PlayerJoinEvent) Deny(reason string) {
	if !e.IsCancelled() {
		e.Reason = reason
	}
	e.Cancel()
}

// ChatMessageEvent is broadcast in PhasePre and, unless cancelled, PhasePost.
// A PhasePre listener that cancels it supplies the text sent back to the
// sender in place of the broadcast.
type ChatMessageEvent struct {
	BaseEvent
	event.CancelableResult[string]
	Player  Player
	Message string
}

// NewChatMessageEvent creates a new ChatMessageEvent. Until cancelled its
// Result is the original message.
func NewChatMessageEvent(player Player, message string) *ChatMessageEvent {
	return &ChatMessageEvent{
		BaseEvent:        NewBaseEvent(TypeChatMessage),
		CancelableResult: event.NewCancelableResult(message),
		Player:           player,
		Message:          message,
	}
}

// BlockPos is an integer world coordinate.
type BlockPos struct {
	X, Y, Z int
}

// BlockBreakEvent is broadcast in PhasePre, where cancelling it keeps the
// block, and in PhasePost once the block is gone.
type BlockBreakEvent struct {
	BaseEvent
	event.Cancelable
	Player Player
	Pos    BlockPos
	Block  string
}

// NewBlockBreakEvent creates a new BlockBreakEvent
func NewBlockBreakEvent(player Player, pos BlockPos, block string) *BlockBreakEvent {
	return &BlockBreakEvent{
		BaseEvent: NewBaseEvent(TypeBlockBreak),
		Player:    player,
		Pos:       pos,
		Block:     block,
	}
}

// ServerTickEvent is broadcast in PhaseDefault once per server tick.
type ServerTickEvent struct {
	BaseEvent
	Tick uint64
}

// NewServerTickEvent creates a new ServerTickEvent
func NewServerTickEvent(tick uint64) *ServerTickEvent {
	return &ServerTickEvent{
		BaseEvent: NewBaseEvent(TypeServerTick),
		Tick:      tick,
	}
}

// -----------------------------------------------------------------------------
// Reload Events
// -----------------------------------------------------------------------------

// ReloadEvent brackets a resource pack reload: PhasePre before any resource
// is read, PhasePost after all of them have been offered.
type ReloadEvent struct {
	BaseEvent
	PackDir   string
	Resources []string // Paths discovered in the pack, set before PhasePre

	// Outcome counters, valid in PhasePost.
	Loaded  int
	Skipped int
	Failed  int
}

// NewReloadEvent creates a new ReloadEvent
func NewReloadEvent(packDir string, resources []string) *ReloadEvent {
	return &ReloadEvent{
		BaseEvent: NewBaseEvent(TypeReload),
		PackDir:   packDir,
		Resources: resources,
	}
}

// ResourceLoadEvent is broadcast in PhaseDefault once per decoded resource.
// Listeners consume Data; cancelling skips the resource.
type ResourceLoadEvent struct {
	BaseEvent
	event.Cancelable
	Path   string         // Slash-separated path relative to the pack root
	Format string         // "yaml" or "toml"
	Data   map[string]any // Decoded document

	consumers []string
}

// NewResourceLoadEvent creates a new ResourceLoadEvent
func NewResourceLoadEvent(path, format string, data map[string]any) *ResourceLoadEvent {
	return &ResourceLoadEvent{
		BaseEvent: NewBaseEvent(TypeResourceLoad),
		Path:      path,
		Format:    format,
		Data:      data,
	}
}

// Consume records that the named feature applied this resource.
func (e *ResourceLoadEvent) Consume(feature string) {
	e.consumers = append(e.consumers, feature)
}

// Consumers returns the features that applied this resource, in order.
func (e *ResourceLoadEvent) Consumers() []string {
	return e.consumers
}

// -----------------------------------------------------------------------------
// Client Events
// -----------------------------------------------------------------------------

// RenderEvent is broadcast on the client bus in PhaseRenderWorld and then
// PhaseRenderOverlay for every frame.
type RenderEvent struct {
	BaseEvent
	Frame        uint64
	PartialTicks float64 // Fraction of a tick elapsed since the last server tick

	draws []string
}

// NewRenderEvent creates a new RenderEvent
func NewRenderEvent(frame uint64, partialTicks float64) *RenderEvent {
	return &RenderEvent{
		BaseEvent:    NewBaseEvent(TypeRender),
		Frame:        frame,
		PartialTicks: partialTicks,
	}
}

// Draw records a draw call.
func (e *RenderEvent) Draw(what string) {
	e.draws = append(e.draws, what)
}

// Draws returns the draw calls made for this frame, in order.
func (e *RenderEvent) Draws() []string {
	return e.draws
}

// Package event provides the phase-aware event buses that connect producers
// (the game loop, the resource reloader, the renderer) to the listeners that
// observe or veto what they are about to do.
//
// # Main Types
//
//   - [Bus]: Synchronous dispatcher for one execution context
//   - [Buses]: The server and client buses, built once at startup
//   - [Registry]: (Kind, Phase) to FIFO listener list, owned by a Bus
//   - [Phase]: Named stage of delivery, compared by name
//   - [Kind]: Concrete Go type an event is dispatched under
//   - [Cancelable], [CancelableResult]: Embeddable cancellation state for event structs
//
// # Dispatch Model
//
// Listeners are registered for an exact event type and a phase:
//
//	event.Register(bus, event.PhasePre, func(e *events.ChatMessageEvent) {
//	    if blocked(e.Message) {
//	        e.CancelWith("message blocked")
//	    }
//	})
//
// The producer owns the phase order. It broadcasts the same event value once
// per stage and reads the outcome afterwards:
//
//	ev := events.NewChatMessageEvent(player, msg)
//	bus.Broadcast(ev, event.PhasePre)
//	if ev.IsCancelled() {
//	    reply(ev.Result())
//	    return
//	}
//	deliver(msg)
//	bus.Broadcast(ev, event.PhasePost)
//
// Within a phase listeners run in registration order. Cancellation is a flag
// on the event: every listener still runs, and later listeners can see that
// an earlier one cancelled. A listener that panics or returns an error is
// logged with its kind, phase and label, and delivery continues with the next
// listener.
//
// # Scopes
//
// Listeners installed for the duration of one operation are tagged with a
// [Scope] and removed together. [Bus.WithScope] brackets the operation and
// removes the scope on every exit path:
//
//	err := bus.WithScope(event.NewScope("reload"), func(s *event.Scoped) {
//	    event.Register(s, event.PhaseDefault, onResource)
//	}, runReload)
//
// # Thread Safety
//
// A Bus is not safe for concurrent use. Each bus belongs to the goroutine of
// its execution context; producers on other goroutines hand their work to
// that goroutine through the loop package instead of broadcasting directly.
package event

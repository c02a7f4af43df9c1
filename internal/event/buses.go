package event

import errs "github.com/Iron-Ham/hookbus/internal/errors"

// Names of the standard execution contexts.
const (
	ServerBus = "server"
	ClientBus = "client"
)

// Buses holds one bus per execution context. Server-side gameplay logic and
// client-side render/tick logic never share a registry: a listener on one is
// invisible to broadcasts on the other.
//
// Buses is built once at startup and passed to every producer and consumer.
type Buses struct {
	Server *Bus
	Client *Bus
}

// NewBuses creates the server and client buses with the same options.
func NewBuses(opts ...Option) *Buses {
	return &Buses{
		Server: NewBus(ServerBus, opts...),
		Client: NewBus(ClientBus, opts...),
	}
}

// Get returns the bus for a context name.
func (b *Buses) Get(name string) (*Bus, error) {
	for _, bus := range b.All() {
		if bus.Name() == name {
			return bus, nil
		}
	}
	return nil, errs.NewNotFoundError("bus", name)
}

// All returns the buses in a fixed order: server, then client.
func (b *Buses) All() []*Bus {
	return []*Bus{b.Server, b.Client}
}

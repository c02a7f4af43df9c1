package event

import (
	"errors"
	"testing"

	errs "github.com/Iron-Ham/hookbus/internal/errors"
)

func TestBuses_Independent(t *testing.T) {
	buses := NewBuses()

	var server, client int
	Register(buses.Server, PhaseDefault, func(*tickEvent) { server++ })
	Register(buses.Client, PhaseDefault, func(*tickEvent) { client++ })

	buses.Server.Broadcast(&tickEvent{})
	if server != 1 || client != 0 {
		t.Errorf("after server broadcast: server=%d client=%d", server, client)
	}

	buses.Client.Broadcast(&tickEvent{})
	buses.Client.Broadcast(&tickEvent{})
	if server != 1 || client != 2 {
		t.Errorf("after client broadcasts: server=%d client=%d", server, client)
	}
}

func TestBuses_Get(t *testing.T) {
	buses := NewBuses()

	tests := []struct {
		name    string
		want    *Bus
		wantErr bool
	}{
		{ServerBus, buses.Server, false},
		{ClientBus, buses.Client, false},
		{"render", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buses.Get(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Get() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, errs.ErrNotFound) {
				t.Errorf("Get() error = %v, want ErrNotFound", err)
			}
			if got != tt.want {
				t.Errorf("Get() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuses_All(t *testing.T) {
	buses := NewBuses(WithTrace(true))
	all := buses.All()
	if len(all) != 2 || all[0].Name() != ServerBus || all[1].Name() != ClientBus {
		t.Errorf("All() = %v", all)
	}
	for _, b := range all {
		if !b.trace {
			t.Errorf("bus %q did not receive options", b.Name())
		}
	}
}

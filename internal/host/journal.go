package host

import (
	"sync"
	"time"

	"github.com/Iron-Ham/hookbus/internal/events"
)

// Entry records what a producer decided after broadcasting one event.
type Entry struct {
	Time    time.Time
	Bus     string
	Type    events.EventType
	Subject string // Player, resource or frame the event was about
	Outcome string
}

// Journal collects entries from every producer. It is safe for concurrent use
// so the CLI can read it while the loops run.
type Journal struct {
	mu      sync.Mutex
	entries []Entry
}

// NewJournal creates an empty journal.
func NewJournal() *Journal {
	return &Journal{}
}

func (j *Journal) add(bus string, t events.EventType, subject, outcome string) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, Entry{
		Time:    time.Now(),
		Bus:     bus,
		Type:    t,
		Subject: subject,
		Outcome: outcome,
	})
}

// Entries returns a copy of the recorded entries, oldest first.
func (j *Journal) Entries() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Entry, len(j.entries))
	copy(out, j.entries)
	return out
}

package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps the state in process. It is used when no database is
// configured and in tests.
type MemoryStore struct {
	mu     sync.Mutex
	state  State
	events []Event
	saves  int

	// SaveErr, when set, is returned by every Save.
	SaveErr error
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(initial State) *MemoryStore {
	return &MemoryStore{state: copyState(initial)}
}

func (m *MemoryStore) Load(ctx context.Context) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyState(m.state), nil
}

func (m *MemoryStore) Save(ctx context.Context, st State, events []Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.state = copyState(st)
	now := time.Now().UTC()
	for _, e := range events {
		if e.OccurredAt.IsZero() {
			e.OccurredAt = now
		}
		m.events = append(m.events, e)
	}
	m.saves++
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// Saves returns how many times Save succeeded.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Events returns every event saved so far, oldest first.
func (m *MemoryStore) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

func copyState(st State) State {
	out := State{
		Phishing:   append([]string(nil), st.Phishing...),
		Legitimate: append([]string(nil), st.Legitimate...),
		Blocked:    append([]string(nil), st.Blocked...),
	}
	if st.APIConfig != nil {
		cfg := *st.APIConfig
		out.APIConfig = &cfg
	}
	return out
}

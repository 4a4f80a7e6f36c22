package events

import (
	"context"
	"sync"
)

// Memory is an in-process broker used when no external feed is configured.
type Memory struct {
	mu     sync.Mutex
	subs   map[string]map[chan Event]struct{}
	buffer int
}

func NewMemory(buffer int) *Memory {
	return &Memory{subs: make(map[string]map[chan Event]struct{}), buffer: buffer}
}

// Publish never blocks; slow subscribers miss events.
func (m *Memory) Publish(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for ch := range m.subs[e.SpaceID] {
		select {
		case ch <- e:
		default:
		}
	}
	return nil
}

func (m *Memory) Subscribe(ctx context.Context, spaceID string) (<-chan Event, func(), error) {
	ch := make(chan Event, m.buffer)
	m.mu.Lock()
	if m.subs[spaceID] == nil {
		m.subs[spaceID] = make(map[chan Event]struct{})
	}
	m.subs[spaceID][ch] = struct{}{}
	m.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs[spaceID], ch)
			if len(m.subs[spaceID]) == 0 {
				delete(m.subs, spaceID)
			}
			m.mu.Unlock()
			close(ch)
		})
	}
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ch, cancel, nil
}

func (m *Memory) Close() error { return nil }

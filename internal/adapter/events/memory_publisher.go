package events

import (
	"context"
	"sync"
)

// MemoryPublisher buffers events in process. It stands in for Kafka when no
// broker is reachable and doubles as the test publisher.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []any
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Publish(ctx context.Context, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *MemoryPublisher) Close() error { return nil }

// Events returns a snapshot of everything published so far.
func (p *MemoryPublisher) Events() []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]any, len(p.events))
	copy(out, p.events)
	return out
}

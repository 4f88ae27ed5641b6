package feed

import (
	"context"
	"sync"

	"nostrlytics/internal/nostr"
)

// MemorySource is an in-process Source backed by a fixed backlog. Each
// subscription receives the matching backlog asynchronously, then one
// end-of-stream signal. Events published after Subscribe reach every open
// subscription whose filter matches, mirroring a relay that keeps the
// connection open after its stored-events dump.
type MemorySource struct {
	mu      sync.Mutex
	backlog []nostr.Event
	subs    map[*memorySubscription]struct{}
}

// NewMemorySource creates a source seeded with the given backlog.
func NewMemorySource(backlog ...nostr.Event) *MemorySource {
	return &MemorySource{
		backlog: append([]nostr.Event(nil), backlog...),
		subs:    make(map[*memorySubscription]struct{}),
	}
}

// Subscribe registers the handlers and starts backlog delivery in a
// goroutine. The returned handle is valid immediately, before any
// callback has fired.
func (s *MemorySource) Subscribe(ctx context.Context, filter nostr.Filter, h Handlers) (Subscription, error) {
	sub := &memorySubscription{
		source:   s,
		filter:   filter,
		handlers: h,
		done:     make(chan struct{}),
	}

	s.mu.Lock()
	s.subs[sub] = struct{}{}
	backlog := make([]nostr.Event, len(s.backlog))
	copy(backlog, s.backlog)
	s.mu.Unlock()

	go sub.run(ctx, backlog)

	return sub, nil
}

// Publish delivers a live event to every open subscription whose filter
// matches. It does not extend the backlog: only current subscribers see
// the event.
func (s *MemorySource) Publish(event nostr.Event) {
	s.mu.Lock()
	subs := make([]*memorySubscription, 0, len(s.subs))
	for sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub.deliver(&event)
	}
}

func (s *MemorySource) remove(sub *memorySubscription) {
	s.mu.Lock()
	delete(s.subs, sub)
	s.mu.Unlock()
}

type memorySubscription struct {
	source   *MemorySource
	filter   nostr.Filter
	handlers Handlers

	closeOnce sync.Once
	done      chan struct{}
}

func (m *memorySubscription) run(ctx context.Context, backlog []nostr.Event) {
	for i := range backlog {
		select {
		case <-ctx.Done():
			return
		case <-m.done:
			return
		default:
		}
		m.deliver(&backlog[i])
	}

	select {
	case <-ctx.Done():
		return
	case <-m.done:
		return
	default:
	}
	if m.handlers.OnEndOfStream != nil {
		m.handlers.OnEndOfStream()
	}
}

func (m *memorySubscription) deliver(event *nostr.Event) {
	select {
	case <-m.done:
		return
	default:
	}
	if m.filter.Matches(event) && m.handlers.OnEvent != nil {
		m.handlers.OnEvent(event)
	}
}

func (m *memorySubscription) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
		m.source.remove(m)
	})
}

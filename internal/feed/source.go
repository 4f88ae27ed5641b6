// Package feed is the transport boundary of the viewer. A Source delivers
// raw events for a subscription filter with at-least-once, unordered
// semantics and signals end-of-stream exactly once when the backlog for
// the filter has been replayed. Live events may still arrive after that
// signal.
package feed

import (
	"context"

	"nostrlytics/internal/nostr"
)

// Handlers receives the deliveries of one subscription. Callbacks are
// invoked from the source's goroutines; the subscriber serializes its own
// state.
type Handlers struct {
	OnEvent       func(*nostr.Event)
	OnEndOfStream func()
}

// Source opens subscriptions against a feed.
type Source interface {
	Subscribe(ctx context.Context, filter nostr.Filter, h Handlers) (Subscription, error)
}

// Subscription is an open feed subscription. Close is idempotent and stops
// further deliveries; callbacks already in flight may still land, which is
// why subscribers fence by scope identity rather than by handle.
type Subscription interface {
	Close()
}

// Package viewer owns the subscription lifecycle of the dashboard: which
// account and date range are active, the feed subscription serving them,
// and the aggregate report derived from what that subscription delivered.
package viewer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"nostrlytics/internal/analytics"
	"nostrlytics/internal/events"
	"nostrlytics/internal/feed"
	"nostrlytics/internal/ingest"
	"nostrlytics/internal/nostr"
	"nostrlytics/internal/timeframe"
)

// State is the loading state of the active scope.
type State string

const (
	// StateIdle means no subscription is active: either no account is
	// connected or the connection was cleared.
	StateIdle State = "idle"
	// StateLoading means a subscription is replaying its backlog.
	StateLoading State = "loading"
	// StateLoaded means end-of-stream arrived and the report reflects
	// everything the backlog contained.
	StateLoaded State = "loaded"
)

// DecrypterFactory builds the payload decrypter for a connection. The
// controller calls it once per scope change.
type DecrypterFactory func(conn nostr.AccountConnection) (nostr.Decrypter, error)

// Controller drives the feed subscription for the current (connection,
// date range) scope. Every scope change closes the previous subscription,
// resets the store and assigns a fresh scope ID; callbacks carry the ID
// they were registered under and are dropped when it no longer matches,
// so a slow old subscription can never contaminate the new scope.
type Controller struct {
	source  feed.Source
	store   *ingest.Store
	factory DecrypterFactory
	logger  *slog.Logger
	opts    analytics.Options

	mu         sync.Mutex
	connection *nostr.AccountConnection
	dateRange  *timeframe.DateRange
	state      State
	report     *analytics.Report

	scopeID   string
	decrypter nostr.Decrypter
	sub       feed.Subscription
	cancel    context.CancelFunc
}

// NewController creates an idle controller with a zero-filled report.
func NewController(source feed.Source, store *ingest.Store, factory DecrypterFactory, logger *slog.Logger, opts analytics.Options) *Controller {
	return &Controller{
		source:  source,
		store:   store,
		factory: factory,
		logger:  logger,
		opts:    opts,
		state:   StateIdle,
		report:  analytics.EmptyReport(opts),
	}
}

// SetConnection activates an account connection. If a date range is
// already set this opens a new subscription scope immediately.
func (c *Controller) SetConnection(ctx context.Context, conn nostr.AccountConnection) error {
	if err := conn.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.connection = &conn
	if c.dateRange == nil {
		return nil
	}
	return c.resubscribeLocked(ctx)
}

// SetDateRange activates a date range. Setting the range that is already
// active is a no-op; any other change while a connection is set opens a
// new scope, discarding everything the old one collected.
func (c *Controller) SetDateRange(ctx context.Context, r timeframe.DateRange) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dateRange != nil && c.dateRange.Equal(r) && c.sub != nil {
		return nil
	}

	c.dateRange = &r
	if c.connection == nil {
		return nil
	}
	return c.resubscribeLocked(ctx)
}

// ClearConnection closes the active subscription, empties the store and
// returns the controller to idle with a zero-filled report. The date
// range is kept for the next connection.
func (c *Controller) ClearConnection() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.teardownLocked()
	c.connection = nil
	c.decrypter = nil
	// Blank the scope ID so callbacks still in flight from the closed
	// subscription fail the fence instead of mutating the idle state.
	c.scopeID = ""
	c.store.ResetAll()
	c.state = StateIdle
	c.report = analytics.EmptyReport(c.opts)
}

// Close shuts the active subscription down. Used on process shutdown.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
	c.scopeID = ""
}

// State returns the current loading state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Report returns the report of the last aggregation pass. Before any
// scope has loaded this is the zero report.
func (c *Controller) Report() *analytics.Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.report
}

// Connection returns the active connection, if any.
func (c *Controller) Connection() (nostr.AccountConnection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connection == nil {
		return nostr.AccountConnection{}, false
	}
	return *c.connection, true
}

// Range returns the active date range, if any.
func (c *Controller) Range() (timeframe.DateRange, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dateRange == nil {
		return timeframe.DateRange{}, false
	}
	return *c.dateRange, true
}

// Refresh re-runs aggregation over the current collections. Live events
// arriving after end-of-stream are appended but not re-aggregated until
// this is called.
func (c *Controller) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateLoaded {
		return
	}
	c.aggregateLocked()
}

// resubscribeLocked opens a new scope for the current connection and
// range. Caller holds c.mu.
func (c *Controller) resubscribeLocked(ctx context.Context) error {
	c.teardownLocked()

	decrypter, err := c.factory(*c.connection)
	if err != nil {
		return err
	}

	c.store.ResetAll()
	c.scopeID = uuid.NewString()
	c.decrypter = decrypter
	c.state = StateLoading
	c.report = analytics.EmptyReport(c.opts)

	filter := nostr.Filter{
		Kinds:     []int{nostr.KindEncryptedDirectMessage},
		Recipient: c.connection.PublicKey,
		Since:     c.dateRange.SinceUnix(c.opts.Offset),
		Until:     c.dateRange.UntilUnix(c.opts.Offset),
	}

	subCtx, cancel := context.WithCancel(ctx)

	scope := c.scopeID
	sub, err := c.source.Subscribe(subCtx, filter, feed.Handlers{
		OnEvent:       func(e *nostr.Event) { c.handleEvent(scope, e) },
		OnEndOfStream: func() { c.handleEndOfStream(scope) },
	})
	if err != nil {
		cancel()
		c.state = StateIdle
		return err
	}

	c.sub = sub
	c.cancel = cancel

	c.logger.Info("subscription opened",
		slog.String("scope", scope),
		slog.String("account", nostr.TrimPublicKey(c.connection.PublicKey, 12)),
		slog.Int64("since", filter.Since),
		slog.Int64("until", filter.Until))

	return nil
}

func (c *Controller) teardownLocked() {
	if c.sub != nil {
		c.sub.Close()
		c.sub = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) handleEvent(scope string, event *nostr.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if scope != c.scopeID {
		return
	}
	if event.Kind != nostr.KindEncryptedDirectMessage {
		return
	}

	record, err := events.Decode(event, c.decrypter)
	if err != nil {
		// Per-event rejection never surfaces to the viewer.
		c.logger.Debug("event rejected",
			slog.String("event_id", event.ID),
			slog.String("error", err.Error()))
		return
	}

	c.store.Append(ingest.Entry{
		DayBucket: timeframe.DayBucketStart(event.CreatedAt * 1000),
		Timestamp: event.CreatedAt,
		Data:      *record,
	})
}

func (c *Controller) handleEndOfStream(scope string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if scope != c.scopeID {
		return
	}

	c.aggregateLocked()
	c.state = StateLoaded

	c.logger.Info("backlog loaded",
		slog.String("scope", scope),
		slog.Int("entries", c.store.Len()))
}

// aggregateLocked runs one full pass. Caller holds c.mu.
func (c *Controller) aggregateLocked() {
	c.report = analytics.Aggregate(c.store.Impressions(), c.store.ClickOuts(), c.opts)
}

// Package internal wires the application together: config, logging,
// keystore, feed source, subscription controller and the HTTP server.
package internal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/text/language"

	"nostrlytics/internal/analytics"
	"nostrlytics/internal/config"
	"nostrlytics/internal/feed"
	"nostrlytics/internal/http"
	"nostrlytics/internal/ingest"
	"nostrlytics/internal/keystore"
	"nostrlytics/internal/logging"
	"nostrlytics/internal/nostr"
	"nostrlytics/internal/timeframe"
	"nostrlytics/internal/viewer"
)

// Application holds the wired components of one nostrlytics process.
type Application struct {
	Config     *config.Config
	Logger     *slog.Logger
	Keystore   *keystore.Keystore
	Controller *viewer.Controller
	Server     *http.Server

	baseCtx context.Context
	cancel  context.CancelFunc
}

// NewApp creates an application from the process environment.
func NewApp() (*Application, error) {
	return NewAppWithConfig(config.GetConfig())
}

// NewAppWithConfig creates an application with the provided config.
func NewAppWithConfig(cfg *config.Config) (*Application, error) {
	logger := logging.NewLogger(cfg)

	ks, err := keystore.Open(cfg.GetKeystorePath(), logger)
	if err != nil {
		return nil, fmt.Errorf("initializing keystore: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("resolving timezone: %w", err)
	}

	locale, err := language.Parse(cfg.Locale)
	if err != nil {
		logger.Warn("unknown locale, using English", slog.String("locale", cfg.Locale))
		locale = language.English
	}

	// The viewer's offset is captured once at startup; every day label for
	// the lifetime of the process uses it.
	opts := analytics.Options{
		Offset: timeframe.CaptureOffset(time.Now(), loc),
		Locale: locale,
	}

	source, err := newSource(cfg, logger)
	if err != nil {
		return nil, err
	}

	baseCtx, cancel := context.WithCancel(context.Background())

	controller := viewer.NewController(source, ingest.NewStore(), decrypterFactory, logger, opts)

	app := &Application{
		Config:     cfg,
		Logger:     logger,
		Keystore:   ks,
		Controller: controller,
		Server:     http.NewServer(baseCtx, cfg, logger, controller, ks),
		baseCtx:    baseCtx,
		cancel:     cancel,
	}

	if err := app.restoreScope(loc); err != nil {
		cancel()
		return nil, err
	}

	return app, nil
}

func newSource(cfg *config.Config, logger *slog.Logger) (feed.Source, error) {
	if cfg.ReplayPath != "" {
		logger.Info("using replay feed", slog.String("path", cfg.ReplayPath))
		return feed.NewReplaySource(cfg.ReplayPath, logger), nil
	}
	if len(cfg.Relays) > 0 {
		// No relay client is wired yet; an empty in-memory feed keeps the
		// dashboard functional until one lands.
		logger.Warn("relay transport not available, starting with an empty feed")
	}
	return feed.NewMemorySource(), nil
}

func decrypterFactory(conn nostr.AccountConnection) (nostr.Decrypter, error) {
	return &nostr.NIP44Decrypter{ConversationKey: conn.ConversationKey}, nil
}

// restoreScope reconnects the persisted account, if any, and applies the
// default date range so the dashboard loads immediately.
func (a *Application) restoreScope(loc *time.Location) error {
	days := a.Config.DefaultRangeDays
	if days <= 0 {
		days = 30
	}
	if err := a.Controller.SetDateRange(a.baseCtx, timeframe.LastNDays(days, time.Now().In(loc))); err != nil {
		return fmt.Errorf("setting default range: %w", err)
	}

	conn, found, err := a.Keystore.Load()
	if err != nil {
		return fmt.Errorf("loading stored connection: %w", err)
	}
	if !found {
		return nil
	}

	if err := a.Controller.SetConnection(a.baseCtx, conn); err != nil {
		a.Logger.Warn("stored connection rejected", slog.String("error", err.Error()))
		return nil
	}
	a.Logger.Info("restored account connection",
		slog.String("account", nostr.TrimPublicKey(conn.PublicKey, 12)))
	return nil
}

// StartAsync begins serving HTTP without blocking.
func (a *Application) StartAsync() error {
	go func() {
		if err := a.Server.Listen(); err != nil {
			a.Logger.Error("http server stopped", slog.Any("error", err))
		}
	}()
	return nil
}

// Shutdown stops the server, the active subscription and the keystore.
func (a *Application) Shutdown(ctx context.Context) error {
	a.cancel()
	a.Controller.Close()

	done := make(chan error, 1)
	go func() { done <- a.Server.Shutdown() }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	if closeErr := a.Keystore.Close(); err == nil {
		err = closeErr
	}
	return err
}

// Package seeder generates synthetic encrypted feed traffic. Its output
// is a replay log the dashboard can load without a live relay, useful for
// demos and load checks.
package seeder

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	mrand "math/rand"
	"os"
	"time"

	"github.com/google/uuid"

	"nostrlytics/internal/events"
	"nostrlytics/internal/nostr"
)

var samplePages = []string{
	"https://example.com/",
	"https://example.com/about",
	"https://example.com/blog/launch",
	"https://example.com/blog/roadmap",
	"https://example.com/pricing",
}

var sampleReferrers = []string{
	"", "", "", // a healthy share of direct traffic
	"https://news.ycombinator.com/",
	"https://duckduckgo.com/",
	"https://x.com/",
	"https://github.com/",
}

var sampleDestinations = []string{
	"https://github.com/example/project",
	"https://docs.example.com/",
	"https://shop.example.com/",
}

var sampleUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1",
}

var sampleLanguages = []string{"en-US", "en-GB", "de-DE", "es-ES", "ja-JP"}

// Seeder produces encrypted events addressed to one account connection.
type Seeder struct {
	Connection nostr.AccountConnection
	Logger     *slog.Logger
	EventCount int
	Days       int
}

// NewSeeder creates a seeder for the given connection.
func NewSeeder(conn nostr.AccountConnection, logger *slog.Logger, eventCount, days int) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	if days <= 0 {
		days = 30
	}
	return &Seeder{
		Connection: conn,
		Logger:     logger,
		EventCount: eventCount,
		Days:       days,
	}
}

// Generate builds EventCount encrypted events with timestamps spread over
// the Days leading up to now. Roughly one in five is a click-out.
func (s *Seeder) Generate(now time.Time) ([]nostr.Event, error) {
	out := make([]nostr.Event, 0, s.EventCount)
	window := int64(s.Days) * 86400

	for i := 0; i < s.EventCount; i++ {
		createdAt := now.Unix() - mrand.Int63n(window)

		record := events.Record{
			Kind:      events.RecordKind,
			Type:      events.EventTypePageImpression,
			UserAgent: pick(sampleUserAgents),
			Language:  pick(sampleLanguages),
			Location:  pick(samplePages),
			Referrer:  pick(sampleReferrers),
		}
		if mrand.Intn(5) == 0 {
			record.Type = events.EventTypeClickOut
			record.Referrer = ""
			record.ClickOutURL = pick(sampleDestinations)
		}

		event, err := s.encrypt(record, createdAt)
		if err != nil {
			return nil, err
		}
		out = append(out, event)
	}

	s.Logger.Info("generated events",
		slog.Int("count", len(out)),
		slog.Int("days", s.Days))
	return out, nil
}

// WriteNDJSON writes events to path in the replay log format, one JSON
// event per line.
func (s *Seeder) WriteNDJSON(path string, evs []nostr.Event) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating replay log: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	for i := range evs {
		if err := encoder.Encode(&evs[i]); err != nil {
			return fmt.Errorf("writing event %d: %w", i, err)
		}
	}
	return nil
}

func (s *Seeder) encrypt(record events.Record, createdAt int64) (nostr.Event, error) {
	senderKey, err := RandomKey()
	if err != nil {
		return nostr.Event{}, err
	}

	conversationKey, err := s.Connection.ConversationKey(senderKey)
	if err != nil {
		return nostr.Event{}, fmt.Errorf("deriving conversation key: %w", err)
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return nostr.Event{}, fmt.Errorf("encoding record: %w", err)
	}

	content, err := nostr.EncryptNIP44(conversationKey, payload)
	if err != nil {
		return nostr.Event{}, fmt.Errorf("encrypting record: %w", err)
	}

	return nostr.Event{
		ID:        uuid.NewString(),
		PubKey:    senderKey,
		CreatedAt: createdAt,
		Kind:      nostr.KindEncryptedDirectMessage,
		Tags:      [][]string{{"p", s.Connection.PublicKey}},
		Content:   content,
	}, nil
}

// RandomKey returns 32 random bytes as lowercase hex, the shape every key
// in the system has.
func RandomKey() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating key: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

func pick(options []string) string {
	return options[mrand.Intn(len(options))]
}

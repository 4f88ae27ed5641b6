// main.go - developer tools: replay log generation
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"nostrlytics/internal/nostr"
	"nostrlytics/internal/seeder"
)

func main() {
	out := flag.String("out", "replay.ndjson", "output path for the replay log")
	count := flag.Int("events", 500, "number of events to generate")
	days := flag.Int("days", 30, "spread events over this many days")
	pubKey := flag.String("pubkey", "", "recipient public key (hex), generated when empty")
	privKey := flag.String("privkey", "", "recipient private key (hex), generated when empty")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	conn, generated, err := resolveConnection(*pubKey, *privKey)
	if err != nil {
		logger.Error("invalid keys", slog.Any("error", err))
		os.Exit(1)
	}
	if generated {
		fmt.Printf("generated keys:\n  public:  %s\n  private: %s\n", conn.PublicKey, conn.PrivateKey)
	}

	s := seeder.NewSeeder(conn, logger, *count, *days)
	events, err := s.Generate(time.Now())
	if err != nil {
		logger.Error("generation failed", slog.Any("error", err))
		os.Exit(1)
	}

	if err := s.WriteNDJSON(*out, events); err != nil {
		logger.Error("writing replay log failed", slog.Any("error", err))
		os.Exit(1)
	}

	fmt.Printf("wrote %d events to %s\n", len(events), *out)
}

func resolveConnection(pubKey, privKey string) (nostr.AccountConnection, bool, error) {
	generated := false
	var err error

	if pubKey == "" {
		if pubKey, err = seeder.RandomKey(); err != nil {
			return nostr.AccountConnection{}, false, err
		}
		generated = true
	}
	if privKey == "" {
		if privKey, err = seeder.RandomKey(); err != nil {
			return nostr.AccountConnection{}, false, err
		}
		generated = true
	}

	conn := nostr.AccountConnection{
		Type:       nostr.ConnectionTypeGeneratedKeys,
		PublicKey:  pubKey,
		PrivateKey: privKey,
	}
	if err := conn.Validate(); err != nil {
		return nostr.AccountConnection{}, false, err
	}
	return conn, generated, nil
}

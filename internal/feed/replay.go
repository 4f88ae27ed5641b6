package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"nostrlytics/internal/nostr"
)

// ReplaySource plays back a captured relay log. The log is newline-
// delimited JSON, one event per line, in whatever order the capture saw
// them. Each subscription re-reads the file, delivers the matching events
// and signals end-of-stream. There are no live events after that.
type ReplaySource struct {
	path   string
	logger *slog.Logger
}

// NewReplaySource creates a source over the log at path. The file is
// opened per subscription, not up front, so a missing file surfaces on
// Subscribe.
func NewReplaySource(path string, logger *slog.Logger) *ReplaySource {
	return &ReplaySource{path: path, logger: logger}
}

func (s *ReplaySource) Subscribe(ctx context.Context, filter nostr.Filter, h Handlers) (Subscription, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening replay log: %w", err)
	}

	sub := &replaySubscription{done: make(chan struct{})}

	go func() {
		defer file.Close()

		scanner := bufio.NewScanner(file)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		line := 0
		for scanner.Scan() {
			line++
			select {
			case <-ctx.Done():
				return
			case <-sub.done:
				return
			default:
			}

			raw := scanner.Bytes()
			if len(raw) == 0 {
				continue
			}

			var event nostr.Event
			if err := json.Unmarshal(raw, &event); err != nil {
				s.logger.Debug("skipping malformed replay line",
					slog.Int("line", line),
					slog.String("error", err.Error()))
				continue
			}

			if filter.Matches(&event) && h.OnEvent != nil {
				h.OnEvent(&event)
			}
		}

		if err := scanner.Err(); err != nil {
			s.logger.Error("replay log read failed",
				slog.String("path", s.path),
				slog.String("error", err.Error()))
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-sub.done:
			return
		default:
		}
		if h.OnEndOfStream != nil {
			h.OnEndOfStream()
		}
	}()

	return sub, nil
}

type replaySubscription struct {
	closeOnce sync.Once
	done      chan struct{}
}

func (r *replaySubscription) Close() {
	r.closeOnce.Do(func() { close(r.done) })
}

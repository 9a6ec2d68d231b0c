package ticklog

import (
	"errors"
	"io"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/errs"
	"main/internal/schema"
)

// PlaybackConfig controls how recorded files are replayed into a sink.
type PlaybackConfig struct {
	// Paths are replayed in order; record timestamps drive pacing.
	Paths []string
	// Pace scales recorded inter-event gaps into real waits: 1 replays at
	// recorded speed, 2 at double speed. Zero disables pacing entirely.
	Pace float64
	// Sleep is swapped out in tests. Nil means time.Sleep.
	Sleep func(time.Duration)
}

func (c PlaybackConfig) withDefaults() PlaybackConfig {
	if c.Sleep == nil {
		c.Sleep = time.Sleep
	}
	return c
}

// Play streams every record from the configured files into sink, pacing by
// recorded timestamp gaps when requested. It stops on the first sink error.
func Play(cfg PlaybackConfig, sink func(schema.Event) error) error {
	cfg = cfg.withDefaults()

	var prevTs int64
	for _, path := range cfg.Paths {
		reader, err := OpenReader(path)
		if err != nil {
			return errs.Wrap(err, "open tick log "+path)
		}
		count, err := playFile(cfg, reader, sink, &prevTs)
		closeErr := reader.Close()
		if err != nil {
			return errs.Wrap(err, "replay "+path)
		}
		if closeErr != nil {
			return closeErr
		}
		logs.Infof("replayed %d records from %s", count, path)
	}
	return nil
}

func playFile(cfg PlaybackConfig, reader *Reader, sink func(schema.Event) error, prevTs *int64) (int, error) {
	count := 0
	for {
		event, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return count, nil
			}
			return count, err
		}
		if cfg.Pace > 0 && *prevTs > 0 && event.TsNs > *prevTs {
			gap := time.Duration(float64(event.TsNs-*prevTs) / cfg.Pace)
			cfg.Sleep(gap)
		}
		*prevTs = event.TsNs
		if err := sink(event); err != nil {
			return count, err
		}
		count++
	}
}

package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

// PollWatch implements Watch for drivers without native change streaming.
// It reads path via get immediately, delivers the snapshot, then re-reads on
// every tick and delivers again whenever the serialized snapshot differs.
// Deduplication relies on drivers producing stable JSON for unchanged data,
// which holds for the SQL drivers (sorted object keys via map marshaling).
func PollWatch(
	ctx context.Context,
	get func(ctx context.Context, path string) (json.RawMessage, error),
	path string,
	interval time.Duration,
	onChange func(json.RawMessage),
	log zerolog.Logger,
) (CancelFunc, error) {
	first, err := get(ctx, path)
	if err != nil {
		return nil, err
	}

	watchCtx, cancel := context.WithCancel(ctx)

	go func() {
		last := first
		onChange(first)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-watchCtx.Done():
				return
			case <-ticker.C:
				snap, err := get(watchCtx, path)
				if err != nil {
					if watchCtx.Err() != nil {
						return
					}
					log.Warn().Err(err).Str("path", path).Msg("watch poll failed")
					continue
				}
				if bytes.Equal(snap, last) {
					continue
				}
				last = snap
				onChange(snap)
			}
		}
	}()

	return CancelFunc(cancel), nil
}

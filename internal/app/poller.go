package app

import (
	"context"
	"log"
	"time"

	"github.com/rclampitt/stratum/internal/layer"
	"github.com/rclampitt/stratum/internal/state"
)

const (
	defaultRefreshInterval = 2 * time.Second
	maxBackoff             = 30 * time.Second
)

// StartRefresher launches a background goroutine that re-collects the layer
// tree into the store at a fixed cadence, backing off while refreshes fail.
// It returns immediately.
func StartRefresher(ctx context.Context, store *state.Store, rec *layer.Record, scale float64, interval time.Duration) {
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	go func() {
		for {
			refresh(store, rec, scale)
			wait := calculateBackoff(store.Snapshot().ConsecutiveFailures, interval)
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
	}()
}

// refresh publishes the current tree rows. While the record is unresolved it
// leaves the store alone so resolution errors recorded by the loader stay
// visible instead of being overwritten by an empty success.
func refresh(store *state.Store, rec *layer.Record, scale float64) {
	if !rec.Resolved() {
		return
	}
	rows, err := state.Collect(rec, scale)
	if err != nil {
		store.Update("", false, nil, err)
		log.Printf("tree refresh failed: %v", err)
		return
	}
	store.Update(rec.Name(), true, rows, nil)
}

// calculateBackoff doubles the base interval per consecutive failure, capped
// at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	wait := base
	for i := 0; i < failures; i++ {
		wait *= 2
		if wait >= maxBackoff {
			return maxBackoff
		}
	}
	return wait
}

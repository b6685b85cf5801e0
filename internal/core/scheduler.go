package core

// scheduler.go runs background maintenance for the firmware store.
//
// Expired images are normally dropped lazily when a new image is stored.
// The sweeper also frees memory on an idle server. It stops when its
// context is cancelled.

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is used when StartEvictionScheduler gets a
// non-positive interval.
const DefaultSweepInterval = 5 * time.Minute

// StartEvictionScheduler removes expired images every interval until ctx
// is cancelled. It blocks; run it in its own goroutine.
func (s *Service) StartEvictionScheduler(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	slog.Info("eviction scheduler started",
		"interval", interval.String(),
		"firmware_ttl", s.opts.FirmwareTTL.String(),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("eviction scheduler stopped")
			return
		case <-ticker.C:
			s.runEviction()
		}
	}
}

func (s *Service) runEviction() {
	start := time.Now()
	removed := s.EvictExpired()
	if removed == 0 {
		slog.Debug("eviction sweep found nothing to remove")
		return
	}
	slog.Info("evicted expired firmware",
		"removed", removed,
		"remaining", s.StoredCount(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

package service

import (
	"context"
	"time"

	"github.com/dtroode/eventhub-server/internal/logger"
)

// TokenPurger removes refresh token records that expired before cutoff.
type TokenPurger interface {
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// Janitor periodically deletes expired refresh tokens. Records are kept
// for retention after expiry so rotation chains stay inspectable.
type Janitor struct {
	purger    TokenPurger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
	logger    *logger.Logger
}

func NewJanitor(purger TokenPurger, interval, retention time.Duration, logger *logger.Logger) *Janitor {
	return &Janitor{
		purger:    purger,
		interval:  interval,
		retention: retention,
		now:       time.Now,
		logger:    logger,
	}
}

// Sweep runs one purge and returns the number of removed records.
func (j *Janitor) Sweep(ctx context.Context) int64 {
	n, err := j.purger.PurgeExpired(ctx, j.now().Add(-j.retention))
	if err != nil {
		j.logger.Error("Janitor: failed to purge refresh tokens",
			"error", err.Error())
		return 0
	}
	if n > 0 {
		j.logger.Info("Janitor: purged refresh tokens", "count", n)
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.Sweep(ctx)
		}
	}
}

// Package activitycache caches Kp lookups per 3-hour slot, in process memory
// or in Redis when several replicas should share one upstream budget.
package activitycache

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/geomag-gtf-service/internal/domain"
	"github.com/couchcryptid/geomag-gtf-service/internal/observability"
)

// Store holds Kp values keyed by slot start time.
type Store interface {
	Get(ctx context.Context, slot time.Time) (kp float64, found bool, err error)
	Set(ctx context.Context, slot time.Time, kp float64) error
}

// CachedSource wraps an ActivitySource with a slot-keyed Store. Only
// published, in-range values are cached, so unpublished slots are retried.
type CachedSource struct {
	inner   domain.ActivitySource
	store   Store
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewCachedSource creates a cache decorator around an activity source.
func NewCachedSource(inner domain.ActivitySource, store Store, metrics *observability.Metrics, logger *slog.Logger) *CachedSource {
	return &CachedSource{
		inner:   inner,
		store:   store,
		metrics: metrics,
		logger:  logger,
	}
}

func (c *CachedSource) ActivityAt(ctx context.Context, t time.Time) (float64, bool, error) {
	slot := domain.KpSlotStart(t)

	kp, found, err := c.store.Get(ctx, slot)
	switch {
	case err != nil:
		// A broken cache degrades to direct lookups.
		c.logger.Warn("kp cache read failed", "slot", slot, "error", err)
	case found:
		c.metrics.CacheLookups.WithLabelValues("kp", "hit").Inc()
		return kp, true, nil
	}
	c.metrics.CacheLookups.WithLabelValues("kp", "miss").Inc()

	kp, ok, err := c.inner.ActivityAt(ctx, slot)
	if err != nil || !ok || !domain.ValidKp(kp) {
		return kp, ok, err
	}
	if err := c.store.Set(ctx, slot, kp); err != nil {
		c.logger.Warn("kp cache write failed", "slot", slot, "error", err)
	}
	return kp, true, nil
}

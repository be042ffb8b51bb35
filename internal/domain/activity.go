package domain

import (
	"context"
	"log/slog"
	"time"
)

// KpSlot is the cadence of the planetary Kp index.
const KpSlot = 3 * time.Hour

// Kp source labels recorded on an Assessment.
const (
	KpSourceQuery    = "query"    // supplied with the query
	KpSourceService  = "service"  // fetched from the activity source
	KpSourceFallback = "fallback" // caller-configured fallback
)

// ActivitySource looks up the planetary Kp index (0–9) in effect at a time.
// ok is false when the source has no value for that slot.
type ActivitySource interface {
	ActivityAt(ctx context.Context, t time.Time) (kp float64, ok bool, err error)
}

// KpSlotStart truncates t to the start of its 3-hour Kp interval in UTC.
func KpSlotStart(t time.Time) time.Time {
	return t.UTC().Truncate(KpSlot)
}

// ValidKp reports whether kp is a finite value within [0, 9].
func ValidKp(kp float64) bool {
	return isFinite(kp) && kp >= 0 && kp <= 9
}

// Activity is a resolved Kp value and where it came from.
type Activity struct {
	Kp     float64 `json:"kp"`
	Source string  `json:"kp_source"`
}

// ResolveActivity returns the Kp to classify with. A value supplied with the
// query wins; otherwise the source is consulted. If the source is nil, fails,
// has no value, or returns an out-of-range value, the fallback is used
// (graceful degradation).
func ResolveActivity(ctx context.Context, at time.Time, supplied *float64, source ActivitySource, fallback float64, logger *slog.Logger) Activity {
	if supplied != nil {
		return Activity{Kp: *supplied, Source: KpSourceQuery}
	}
	if source == nil {
		return Activity{Kp: fallback, Source: KpSourceFallback}
	}

	kp, ok, err := source.ActivityAt(ctx, at)
	if err != nil {
		logger.Warn("kp lookup failed, using fallback",
			"time", at,
			"fallback", fallback,
			"error", err,
		)
		return Activity{Kp: fallback, Source: KpSourceFallback}
	}
	if !ok || !ValidKp(kp) {
		logger.Debug("kp unavailable, using fallback", "time", at, "fallback", fallback)
		return Activity{Kp: fallback, Source: KpSourceFallback}
	}
	return Activity{Kp: kp, Source: KpSourceService}
}

package activitycache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/geomag-gtf-service/internal/observability"
)

var slot = time.Date(2025, time.November, 12, 18, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- mocks ---

type countingSource struct {
	calls int
	last  time.Time
	kp    float64
	ok    bool
	err   error
}

func (m *countingSource) ActivityAt(_ context.Context, t time.Time) (float64, bool, error) {
	m.calls++
	m.last = t
	return m.kp, m.ok, m.err
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, time.Time) (float64, bool, error) {
	return 0, false, errors.New("connection refused")
}

func (brokenStore) Set(context.Context, time.Time, float64) error {
	return errors.New("connection refused")
}

// --- Memory tests ---

func TestMemory_GetSet(t *testing.T) {
	clock := clockwork.NewFakeClockAt(slot)
	m := NewMemory(15*time.Minute, clock)

	_, found, err := m.Get(context.Background(), slot)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, m.Set(context.Background(), slot, 4.333))

	kp, found, err := m.Get(context.Background(), slot)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 4.333, kp)
	assert.Equal(t, 1, m.Len())
}

func TestMemory_Expiry(t *testing.T) {
	clock := clockwork.NewFakeClockAt(slot)
	m := NewMemory(15*time.Minute, clock)
	require.NoError(t, m.Set(context.Background(), slot, 2))

	clock.Advance(14 * time.Minute)
	_, found, _ := m.Get(context.Background(), slot)
	assert.True(t, found)

	clock.Advance(time.Minute)
	_, found, _ = m.Get(context.Background(), slot)
	assert.False(t, found, "entry expires at exactly the TTL")
	assert.Zero(t, m.Len())
}

func TestMemory_SweepOnSet(t *testing.T) {
	clock := clockwork.NewFakeClockAt(slot)
	m := NewMemory(time.Minute, clock)
	require.NoError(t, m.Set(context.Background(), slot, 1))

	clock.Advance(2 * time.Minute)
	require.NoError(t, m.Set(context.Background(), slot.Add(3*time.Hour), 2))

	assert.Equal(t, 1, m.Len())
}

// --- CachedSource tests ---

func TestCachedSource_CachesPerSlot(t *testing.T) {
	inner := &countingSource{kp: 6.667, ok: true}
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedSource(inner, NewMemory(time.Hour, clockwork.NewFakeClockAt(slot)), metrics, discardLogger())

	kp, ok, err := cached.ActivityAt(context.Background(), slot.Add(20*time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 6.667, kp)
	assert.Equal(t, slot, inner.last, "inner receives the slot start")

	kp, ok, err = cached.ActivityAt(context.Background(), slot.Add(2*time.Hour+59*time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 6.667, kp)

	assert.Equal(t, 1, inner.calls)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("kp", "hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("kp", "miss")), 0)

	_, _, _ = cached.ActivityAt(context.Background(), slot.Add(3*time.Hour))
	assert.Equal(t, 2, inner.calls, "next slot misses")
}

func TestCachedSource_UnpublishedNotCached(t *testing.T) {
	inner := &countingSource{ok: false}
	store := NewMemory(time.Hour, clockwork.NewFakeClockAt(slot))
	cached := NewCachedSource(inner, store, observability.NewMetricsForTesting(), discardLogger())

	_, ok, err := cached.ActivityAt(context.Background(), slot)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, _ = cached.ActivityAt(context.Background(), slot)
	assert.Equal(t, 2, inner.calls)
	assert.Zero(t, store.Len())
}

func TestCachedSource_ErrorsAndInvalidNotCached(t *testing.T) {
	store := NewMemory(time.Hour, clockwork.NewFakeClockAt(slot))

	failing := NewCachedSource(&countingSource{err: errors.New("timeout")}, store, observability.NewMetricsForTesting(), discardLogger())
	_, _, err := failing.ActivityAt(context.Background(), slot)
	require.Error(t, err)

	bogus := NewCachedSource(&countingSource{kp: 11, ok: true}, store, observability.NewMetricsForTesting(), discardLogger())
	_, _, err = bogus.ActivityAt(context.Background(), slot)
	require.NoError(t, err)

	assert.Zero(t, store.Len())
}

func TestCachedSource_BrokenStoreFallsThrough(t *testing.T) {
	inner := &countingSource{kp: 3, ok: true}
	cached := NewCachedSource(inner, brokenStore{}, observability.NewMetricsForTesting(), discardLogger())

	kp, ok, err := cached.ActivityAt(context.Background(), slot)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3.0, kp)
}

// --- Redis without a server ---

func TestRedis_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	})
	t.Cleanup(func() { _ = client.Close() })
	r := NewRedisFromClient(client, time.Minute)

	_, _, err := r.Get(context.Background(), slot)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis get")

	err = r.Set(context.Background(), slot, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis set")
}

func TestRedis_Key(t *testing.T) {
	r := NewRedisFromClient(nil, time.Minute)
	assert.Equal(t, "gtf:kp:2025-11-12T18:00:00Z", r.key(slot.In(time.FixedZone("CET", 3600))))
}

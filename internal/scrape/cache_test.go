package scrape

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/surfspots/internal/observability"
)

type fakeFetcher struct {
	calls int
	snap  Snapshot
	err   error
}

func (f *fakeFetcher) Fetch(context.Context) (Snapshot, error) {
	f.calls++
	if f.err != nil {
		return Snapshot{}, f.err
	}
	return f.snap, nil
}

func newTestCache(f Fetcher) (*Cache, *clockwork.FakeClock, *observability.Metrics) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC))
	metrics := observability.NewMetricsForTesting()
	return NewCache(f, time.Hour, clock, zerolog.Nop(), metrics), clock, metrics
}

func snapshot(rank string) Snapshot {
	return Snapshot{Rankings: []Ranking{{Rank: rank, Name: "Italo Ferreira"}}}
}

func TestCacheReusesWithinTTL(t *testing.T) {
	f := &fakeFetcher{snap: snapshot("1")}
	c, clock, _ := newTestCache(f)

	v1, err := c.Get(context.Background())
	require.NoError(t, err)

	f.snap = snapshot("2")
	clock.Advance(59 * time.Minute)
	v2, err := c.Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, f.calls)
	assert.Equal(t, v1, v2)
	assert.Equal(t, "1", v2.Rankings[0].Rank)
	assert.False(t, v2.Stale)
}

func TestCacheRefreshesAfterTTL(t *testing.T) {
	f := &fakeFetcher{snap: snapshot("1")}
	c, clock, metrics := newTestCache(f)

	_, err := c.Get(context.Background())
	require.NoError(t, err)

	f.snap = snapshot("2")
	clock.Advance(time.Hour)
	v, err := c.Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, f.calls)
	assert.Equal(t, "2", v.Rankings[0].Rank)
	assert.Equal(t, clock.Now(), v.FetchedAt)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ScrapeRefreshes.WithLabelValues("success")))
}

func TestCacheKeepsLastGoodSnapshot(t *testing.T) {
	f := &fakeFetcher{snap: snapshot("1")}
	c, clock, metrics := newTestCache(f)

	first, err := c.Get(context.Background())
	require.NoError(t, err)

	f.err = errors.New("site down")
	clock.Advance(2 * time.Hour)
	v, err := c.Get(context.Background())
	require.NoError(t, err)

	assert.True(t, v.Stale)
	assert.Equal(t, first.Snapshot, v.Snapshot)
	assert.Equal(t, first.FetchedAt, v.FetchedAt)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ScrapeRefreshes.WithLabelValues("error")))

	// recovery clears the stale flag
	f.err = nil
	f.snap = snapshot("3")
	require.NoError(t, c.Refresh(context.Background()))
	v, err = c.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, v.Stale)
	assert.Equal(t, "3", v.Rankings[0].Rank)
}

func TestCacheWithoutAnySnapshot(t *testing.T) {
	boom := errors.New("dns failure")
	c, _, _ := newTestCache(&fakeFetcher{err: boom})

	v, err := c.Get(context.Background())

	assert.ErrorIs(t, err, ErrNoSnapshot)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, v.Rankings)
	assert.Empty(t, v.Events)
}

func TestCacheRefreshIgnoresTTL(t *testing.T) {
	f := &fakeFetcher{snap: snapshot("1")}
	c, _, _ := newTestCache(f)

	require.NoError(t, c.Refresh(context.Background()))
	require.NoError(t, c.Refresh(context.Background()))

	assert.Equal(t, 2, f.calls)
}

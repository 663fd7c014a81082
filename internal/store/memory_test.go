package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/surfspots/internal/observability"
)

func newTestStore(maxEntries int, maxAge time.Duration) (*MemoryStore, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	return NewMemoryStore("/charts/", maxEntries, maxAge, clock, observability.NewMetricsForTesting()), clock
}

func TestPutAndGet(t *testing.T) {
	s, _ := newTestStore(0, 0)

	url, err := s.Put(context.Background(), "image/png", []byte("forecast-a"))
	require.NoError(t, err)

	id := ID([]byte("forecast-a"))
	assert.Equal(t, "/charts/"+id, url)

	img, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, []byte("forecast-a"), img.Data)
}

func TestDifferentContentGetsDifferentURLs(t *testing.T) {
	s, _ := newTestStore(0, 0)

	a, err := s.Put(context.Background(), "image/png", []byte("chart for Peniche"))
	require.NoError(t, err)
	b, err := s.Put(context.Background(), "image/png", []byte("chart for Biarritz"))
	require.NoError(t, err)
	again, err := s.Put(context.Background(), "image/png", []byte("chart for Peniche"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, again)
	assert.Equal(t, 2, s.Len())
}

func TestPutCopiesInput(t *testing.T) {
	s, _ := newTestStore(0, 0)
	data := []byte("mutable")

	_, err := s.Put(context.Background(), "image/png", data)
	require.NoError(t, err)
	data[0] = 'M'

	img, err := s.Get(ID([]byte("mutable")))
	require.NoError(t, err)
	assert.Equal(t, []byte("mutable"), img.Data)
}

func TestPutRejectsEmpty(t *testing.T) {
	s, _ := newTestStore(0, 0)

	_, err := s.Put(context.Background(), "image/png", nil)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestGetUnknown(t *testing.T) {
	s, _ := newTestStore(0, 0)

	_, err := s.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRetentionByCount(t *testing.T) {
	s, _ := newTestStore(2, 0)
	ctx := context.Background()

	_, _ = s.Put(ctx, "image/png", []byte("one"))
	_, _ = s.Put(ctx, "image/png", []byte("two"))
	// refreshing "one" makes "two" the oldest
	_, _ = s.Put(ctx, "image/png", []byte("one"))
	_, _ = s.Put(ctx, "image/png", []byte("three"))

	assert.Equal(t, 2, s.Len())
	_, err := s.Get(ID([]byte("two")))
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ID([]byte("one")))
	assert.NoError(t, err)
	assert.Equal(t, 2.0, testutil.ToFloat64(s.metrics.ImagesStored))
}

func TestSweepByAge(t *testing.T) {
	s, clock := newTestStore(0, time.Hour)
	ctx := context.Background()

	_, _ = s.Put(ctx, "image/png", []byte("old"))
	clock.Advance(45 * time.Minute)
	_, _ = s.Put(ctx, "image/png", []byte("new"))
	clock.Advance(30 * time.Minute)

	removed := s.Sweep()

	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, s.Len())
	_, err := s.Get(ID([]byte("new")))
	assert.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.ImagesStored))
}

func TestSweepWithoutMaxAge(t *testing.T) {
	s, clock := newTestStore(0, 0)
	_, _ = s.Put(context.Background(), "image/png", []byte("keep"))
	clock.Advance(24 * time.Hour)

	assert.Zero(t, s.Sweep())
	assert.Equal(t, 1, s.Len())
}

func TestConcurrentPuts(t *testing.T) {
	s, _ := newTestStore(0, 0)

	var wg sync.WaitGroup
	urls := make([]string, 50)
	for i := range urls {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, err := s.Put(context.Background(), "image/png", []byte(fmt.Sprintf("chart-%d", i)))
			assert.NoError(t, err)
			urls[i] = u
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, u := range urls {
		assert.False(t, seen[u], "duplicate url %s", u)
		seen[u] = true
	}
	assert.Equal(t, 50, s.Len())
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".png", extension("image/png"))
	assert.Equal(t, "", extension("application/x-unknown-thing"))
}

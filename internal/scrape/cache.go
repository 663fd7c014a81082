package scrape

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/i474232898/surfspots/internal/observability"
)

// ErrNoSnapshot is returned when nothing has ever been scraped successfully.
var ErrNoSnapshot = errors.New("no news snapshot available")

// Fetcher produces a fresh snapshot.
type Fetcher interface {
	Fetch(ctx context.Context) (Snapshot, error)
}

// Cache holds the last good snapshot with its fetch time. Reads reuse it
// while it is younger than ttl and refresh it synchronously otherwise.
type Cache struct {
	fetcher Fetcher
	ttl     time.Duration
	clock   clockwork.Clock
	logger  zerolog.Logger
	metrics *observability.Metrics

	refreshMu sync.Mutex // serializes fetches

	mu        sync.RWMutex
	snap      *Snapshot
	fetchedAt time.Time
	lastErr   error
}

// NewCache creates an empty cache; the first Get or Refresh fills it.
func NewCache(fetcher Fetcher, ttl time.Duration, clock clockwork.Clock, logger zerolog.Logger, metrics *observability.Metrics) *Cache {
	return &Cache{
		fetcher: fetcher,
		ttl:     ttl,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

// Get returns the cached snapshot, refreshing it first when it has expired.
// A failed refresh falls back to the previous snapshot marked Stale; with no
// previous snapshot the error is returned alongside an empty View.
func (c *Cache) Get(ctx context.Context) (View, error) {
	if v, ok := c.fresh(); ok {
		return v, nil
	}

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// Another caller may have refreshed while we waited.
	if v, ok := c.fresh(); ok {
		return v, nil
	}

	if err := c.refreshLocked(ctx); err != nil {
		return c.fallback(err)
	}
	v, _ := c.current()
	return v, nil
}

// Refresh fetches a new snapshot regardless of its age. On failure the
// previous snapshot is kept.
func (c *Cache) Refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	return c.refreshLocked(ctx)
}

func (c *Cache) refreshLocked(ctx context.Context) error {
	snap, err := c.fetcher.Fetch(ctx)
	if err != nil {
		c.metrics.ScrapeRefreshes.WithLabelValues("error").Inc()
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		c.logger.Warn().Err(err).Msg("news refresh failed, keeping last snapshot")
		return err
	}

	c.mu.Lock()
	c.snap = &snap
	c.fetchedAt = c.clock.Now()
	c.lastErr = nil
	c.mu.Unlock()

	c.metrics.ScrapeRefreshes.WithLabelValues("success").Inc()
	c.metrics.ScrapeAge.Set(0)
	c.logger.Info().Int("rankings", len(snap.Rankings)).Int("events", len(snap.Events)).Msg("news refreshed")
	return nil
}

func (c *Cache) fresh() (View, bool) {
	v, ok := c.current()
	if !ok {
		return View{}, false
	}
	age := c.clock.Since(v.FetchedAt)
	c.metrics.ScrapeAge.Set(age.Seconds())
	return v, age < c.ttl
}

func (c *Cache) current() (View, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.snap == nil {
		return View{}, false
	}
	return View{Snapshot: *c.snap, FetchedAt: c.fetchedAt, Stale: c.lastErr != nil}, true
}

func (c *Cache) fallback(err error) (View, error) {
	v, ok := c.current()
	if !ok {
		return View{}, errors.Join(ErrNoSnapshot, err)
	}
	return v, nil
}

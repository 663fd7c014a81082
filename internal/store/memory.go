package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/surfspots/internal/observability"
)

var (
	// ErrNotFound is returned when no image is stored under an id.
	ErrNotFound = errors.New("image not found")
	// ErrEmpty is returned when asked to store zero bytes.
	ErrEmpty = errors.New("empty image")
)

// Image is a stored rendering.
type Image struct {
	ID          string
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}

// MemoryStore is a concurrency-safe, content-addressed in-memory image store.
// Identical content maps to the same id, so concurrent renders never
// overwrite each other's output.
type MemoryStore struct {
	mu sync.RWMutex

	// key: hex SHA-256 of the content
	data  map[string]*Image
	order []string // insertion order, oldest first

	// retention configuration
	maxEntries int           // max number of images kept
	maxAge     time.Duration // optional max age for images

	urlPrefix string
	clock     clockwork.Clock
	metrics   *observability.Metrics
}

// NewMemoryStore creates a new MemoryStore serving images under urlPrefix.
// If maxEntries is <= 0, it is treated as unlimited.
func NewMemoryStore(urlPrefix string, maxEntries int, maxAge time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{
		data:       make(map[string]*Image),
		maxEntries: maxEntries,
		maxAge:     maxAge,
		urlPrefix:  urlPrefix,
		clock:      clock,
		metrics:    metrics,
	}
}

// ID returns the content identity used for data.
func ID(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Put stores data and returns the URL that serves it.
func (s *MemoryStore) Put(_ context.Context, contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	id := ID(data)
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if img, ok := s.data[id]; ok {
		img.CreatedAt = now
		s.touch(id)
	} else {
		buf := make([]byte, len(data))
		copy(buf, data)
		s.data[id] = &Image{ID: id, ContentType: contentType, Data: buf, CreatedAt: now}
		s.order = append(s.order, id)
	}

	// Enforce retention by count.
	for s.maxEntries > 0 && len(s.order) > s.maxEntries {
		delete(s.data, s.order[0])
		s.order = s.order[1:]
	}
	s.report()

	return s.urlPrefix + id, nil
}

// Get returns the image stored under id.
func (s *MemoryStore) Get(id string) (Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	img, ok := s.data[id]
	if !ok {
		return Image{}, ErrNotFound
	}
	return *img, nil
}

// Sweep drops images older than the configured max age and returns how
// many were removed.
func (s *MemoryStore) Sweep() int {
	if s.maxAge <= 0 {
		return 0
	}
	cutoff := s.clock.Now().Add(-s.maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	// order is sorted by CreatedAt since Put moves refreshed ids to the end.
	i := 0
	for ; i < len(s.order); i++ {
		if !s.data[s.order[i]].CreatedAt.Before(cutoff) {
			break
		}
		delete(s.data, s.order[i])
	}
	s.order = s.order[i:]
	s.report()
	return i
}

// Len returns the number of stored images.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *MemoryStore) touch(id string) {
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.order = append(s.order, id)
}

func (s *MemoryStore) report() {
	if s.metrics != nil {
		s.metrics.ImagesStored.Set(float64(len(s.data)))
	}
}

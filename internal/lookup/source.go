package lookup

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"lookahead/internal/domain"
)

// PageSize is the number of records returned per page
const PageSize = 10

// Source provides paged prefix lookups
type Source interface {
	Fetch(ctx context.Context, startsWith string, page int) ([]domain.Lookup, error)
}

// MemorySource is an in-memory implementation of Source standing in for a
// backend API
type MemorySource struct {
	mu      sync.RWMutex
	lookups []domain.Lookup
	latency time.Duration
	calls   atomic.Int64
}

// Option configures a MemorySource
type Option func(*MemorySource)

// WithLatency delays every fetch, simulating a slow backend
func WithLatency(d time.Duration) Option {
	return func(s *MemorySource) {
		s.latency = d
	}
}

// NewMemorySource creates a source over a copy of lookups
func NewMemorySource(lookups []domain.Lookup, opts ...Option) *MemorySource {
	s := &MemorySource{
		lookups: append([]domain.Lookup(nil), lookups...),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MockLookups generates the fixed demo dataset: two named records followed by
// test1..test99
func MockLookups() []domain.Lookup {
	lookups := []domain.Lookup{
		{ID: 1994, Name: "ana"},
		{ID: 1989, Name: "narcis"},
	}
	for i := 1; i < 100; i++ {
		lookups = append(lookups, domain.Lookup{ID: i, Name: fmt.Sprintf("test%d", i)})
	}
	return lookups
}

// Fetch returns page of the records whose name starts with startsWith,
// ignoring case. Pages start at 1; page 0 or below reads from the start.
func (s *MemorySource) Fetch(ctx context.Context, startsWith string, page int) ([]domain.Lookup, error) {
	s.calls.Add(1)
	log.WithField("term", startsWith).Debugf("api call filter: %s", startsWith)

	if s.latency > 0 {
		timer := time.NewTimer(s.latency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, fmt.Errorf("fetch %q page %d: %w", startsWith, page, ctx.Err())
		}
	}

	take := PageSize
	skip := 0
	if page > 0 {
		skip = (page - 1) * take
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := strings.ToLower(startsWith)
	var filtered []domain.Lookup
	for _, l := range s.lookups {
		if strings.HasPrefix(strings.ToLower(l.Name), prefix) {
			filtered = append(filtered, l)
		}
	}

	log.WithFields(log.Fields{"skip": skip, "take": take}).Debugf("skip: %d, take: %d", skip, take)

	if skip >= len(filtered) {
		return []domain.Lookup{}, nil
	}
	end := skip + take
	if end > len(filtered) {
		end = len(filtered)
	}

	// Return a copy to prevent external modification
	result := make([]domain.Lookup, end-skip)
	copy(result, filtered[skip:end])
	return result, nil
}

// Calls returns how many fetches the source has served
func (s *MemorySource) Calls() int {
	return int(s.calls.Load())
}

// Len returns the size of the dataset
func (s *MemorySource) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lookups)
}

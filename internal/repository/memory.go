package repository

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is the default store used when no database is configured.
type MemoryStore struct {
	mu      sync.Mutex
	results []Result
	tally   map[string]int64
	limit   int
}

// NewMemoryStore keeps at most limit results; the tally is unbounded.
func NewMemoryStore(limit int) *MemoryStore {
	if limit <= 0 {
		limit = 100
	}
	return &MemoryStore{tally: make(map[string]int64), limit: limit}
}

func (m *MemoryStore) Record(_ context.Context, r Result) error {
	if !validOutcome(r.Outcome) {
		return fmt.Errorf("%w: %q", ErrUnknownOutcome, r.Outcome)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tally[r.Outcome]++
	m.results = append(m.results, r)
	if len(m.results) > m.limit {
		m.results = m.results[len(m.results)-m.limit:]
	}
	return nil
}

func (m *MemoryStore) Tally(_ context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(m.tally))
	for k, v := range m.tally {
		out[k] = v
	}
	return out, nil
}

// Recent returns the newest results first.
func (m *MemoryStore) Recent(_ context.Context, limit int) ([]Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > len(m.results) {
		limit = len(m.results)
	}
	out := make([]Result, 0, limit)
	for i := len(m.results) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.results[i])
	}
	return out, nil
}

// Package mock provides mock implementations of catalog interfaces for testing.
package mock

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/finder/internal/catalog"
)

// MockCatalog is an in-memory implementation of catalog.Writer
type MockCatalog struct {
	mu      sync.RWMutex
	records map[string]*catalog.Record
	order   []string
	fetched int

	// Error injection
	FetchOneError error
	FetchAllError error
	// FailAfter makes FetchAll yield FetchAllError after this many records
	// (0 = fail before the first record).
	FailAfter   int
	CountError  error
	SaveError   error
	DeleteError error
}

// NewMockCatalog creates a new mock catalog
func NewMockCatalog() *MockCatalog {
	return &MockCatalog{
		records: make(map[string]*catalog.Record),
	}
}

// AddRecord adds a record to the mock store, keeping insertion order
func (m *MockCatalog) AddRecord(rec catalog.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[rec.ID]; !exists {
		m.order = append(m.order, rec.ID)
	}
	m.records[rec.ID] = &rec
}

// Fetched returns how many records FetchAll has yielded so far
func (m *MockCatalog) Fetched() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fetched
}

// FetchOne retrieves a record by ID
func (m *MockCatalog) FetchOne(ctx context.Context, id string) (*catalog.Record, error) {
	if m.FetchOneError != nil {
		return nil, m.FetchOneError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

// FetchAll streams records in insertion order
func (m *MockCatalog) FetchAll(ctx context.Context) iter.Seq2[catalog.Record, error] {
	return func(yield func(catalog.Record, error) bool) {
		m.mu.RLock()
		ids := append([]string(nil), m.order...)
		m.mu.RUnlock()

		for i, id := range ids {
			if m.FetchAllError != nil && i == m.FailAfter {
				yield(catalog.Record{}, m.FetchAllError)
				return
			}
			if err := ctx.Err(); err != nil {
				yield(catalog.Record{}, err)
				return
			}

			m.mu.Lock()
			rec, ok := m.records[id]
			var cp catalog.Record
			if ok {
				cp = *rec
				m.fetched++
			}
			m.mu.Unlock()
			if !ok {
				continue
			}

			if !yield(cp, nil) {
				return
			}
		}
		if m.FetchAllError != nil && m.FailAfter >= len(ids) {
			yield(catalog.Record{}, m.FetchAllError)
		}
	}
}

// Count returns the total number of records
func (m *MockCatalog) Count(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

// Save stores a record, generating an ID when empty
func (m *MockCatalog) Save(ctx context.Context, rec catalog.Record) (string, error) {
	if m.SaveError != nil {
		return "", m.SaveError
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	m.AddRecord(rec)
	return rec.ID, nil
}

// Delete removes a record
func (m *MockCatalog) Delete(ctx context.Context, id string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(m.records, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

var _ catalog.Writer = (*MockCatalog)(nil)

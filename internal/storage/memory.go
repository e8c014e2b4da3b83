package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/srikandi-id/harvester/internal/types"
)

// MemoryStore is an in-process Store with the same link uniqueness rule
// as the MongoDB collection. Used by tests and dry runs.
type MemoryStore struct {
	mu      sync.Mutex
	records []types.ArticleRecord
	links   map[string]struct{}

	// LinksErr and InsertErr, when set, are returned by the matching call.
	LinksErr  error
	InsertErr error

	inserts int
}

// NewMemoryStore creates a store holding seed.
func NewMemoryStore(seed ...types.ArticleRecord) *MemoryStore {
	m := &MemoryStore{links: make(map[string]struct{})}
	for _, r := range seed {
		if _, ok := m.links[r.Link]; ok {
			continue
		}
		m.links[r.Link] = struct{}{}
		m.records = append(m.records, r)
	}
	return m
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Links(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LinksErr != nil {
		return nil, m.LinksErr
	}
	out := make([]string, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r.Link)
	}
	return out, nil
}

func (m *MemoryStore) InsertMany(ctx context.Context, records []types.ArticleRecord) (InsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts++
	if m.InsertErr != nil {
		return InsertResult{}, &types.StorageError{Backend: m.Name(), Op: "insert many", Err: m.InsertErr}
	}

	var res InsertResult
	for _, r := range records {
		if _, ok := m.links[r.Link]; ok {
			res.Conflicts++
			continue
		}
		m.links[r.Link] = struct{}{}
		r.KeywordsFound = slices.Clone(r.KeywordsFound)
		m.records = append(m.records, r)
		res.Inserted++
	}
	return res, nil
}

func (m *MemoryStore) Find(ctx context.Context, q Query) ([]types.ArticleRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []types.ArticleRecord
	for _, r := range m.records {
		if q.Source != "" && r.Source != q.Source {
			continue
		}
		out = append(out, r)
		if q.Limit > 0 && int64(len(out)) >= q.Limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) Close(ctx context.Context) error { return nil }

// Records returns a copy of everything stored, in insertion order.
func (m *MemoryStore) Records() []types.ArticleRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.records)
}

// InsertCalls returns how many times InsertMany was called.
func (m *MemoryStore) InsertCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inserts
}

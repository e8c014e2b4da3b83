// Package storage persists article records: the MongoDB store, an
// in-memory store, the spill file used when the store rejects a batch,
// and the gateway that ties them together.
package storage

import (
	"context"

	"github.com/srikandi-id/harvester/internal/types"
)

// Store is the article collection. Implementations enforce uniqueness of
// the link field.
type Store interface {
	// Links returns every stored link.
	Links(ctx context.Context) ([]string, error)

	// InsertMany inserts records without stopping at the first failure.
	// Duplicate-link rejections are reported in InsertResult.Conflicts,
	// never as an error. A non-nil error with a zero result means nothing
	// was written.
	InsertMany(ctx context.Context, records []types.ArticleRecord) (InsertResult, error)

	// Find returns stored records matching q.
	Find(ctx context.Context, q Query) ([]types.ArticleRecord, error)

	// Close releases the connection.
	Close(ctx context.Context) error

	// Name returns the backend identifier.
	Name() string
}

// InsertResult summarizes an unordered bulk insert.
type InsertResult struct {
	Inserted  int
	Conflicts int

	// Failed holds indexes into the input of records rejected for a
	// reason other than a duplicate link.
	Failed []int
}

// Query filters the read path. Zero values mean no filter.
type Query struct {
	Source string
	Limit  int64
}

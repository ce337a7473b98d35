// Package catalog defines the persistent store of registered lost and found
// items and the backends implementing it.
package catalog

import (
	"context"
	"iter"
)

// Reader provides read-only access to catalog records
type Reader interface {
	// FetchOne retrieves a record by ID, returns ErrNotFound if it does not exist
	FetchOne(ctx context.Context, id string) (*Record, error)
	// FetchAll streams every record in insertion order. Iteration stops at the
	// first error, which is yielded with a zero Record. Breaking out of the
	// loop releases the underlying query.
	FetchAll(ctx context.Context) iter.Seq2[Record, error]
	// Count returns the total number of records stored
	Count(ctx context.Context) (int, error)
}

// Writer provides write access to catalog records
type Writer interface {
	Reader

	// Save stores a new record and returns its ID. A new ID is generated when
	// rec.ID is empty.
	Save(ctx context.Context, rec Record) (string, error)

	// Delete removes a record, returns ErrNotFound if it does not exist
	Delete(ctx context.Context, id string) error
}

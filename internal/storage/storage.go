// Package storage defines the tabular store capability the sync engine
// writes to. Implementations live in the subpackages.
package storage

import (
	"context"
	"fmt"
)

// TabularStore is a spreadsheet-like store addressed by a stable identifier
// and a named sheet. Columns are 1-based.
type TabularStore interface {
	// ColumnValues returns every non-empty cell of a column, top to bottom,
	// excluding the header row.
	ColumnValues(ctx context.Context, column int) ([]string, error)
	// AppendRows bulk-appends rows after the last occupied row.
	AppendRows(ctx context.Context, rows [][]string) error
	// RowCount reports the number of occupied rows in a column, header
	// included.
	RowCount(ctx context.Context, column int) (int, error)
	// Location describes the store destination for human-readable output.
	Location() string
}

// RateLimitError is the one store failure the sync engine retries.
type RateLimitError struct {
	Err error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("store rate limit exceeded: %v", e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

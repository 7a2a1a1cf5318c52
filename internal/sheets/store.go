package sheets

import (
	"context"
	"fmt"
)

// Store opens spreadsheets by identifier. Implementations talk to a
// remote tabular service; tests substitute an in-memory fake.
type Store interface {
	Open(ctx context.Context, spreadsheetID string) (Spreadsheet, error)
}

// Spreadsheet resolves worksheets by name and creates them on demand.
type Spreadsheet interface {
	// Worksheet returns the named worksheet, or a *StoreError with
	// KindNotFound when no worksheet of that name exists.
	Worksheet(ctx context.Context, name string) (Worksheet, error)
	// AddWorksheet creates a worksheet with the given capacity.
	AddWorksheet(ctx context.Context, name string, rows, cols int) (Worksheet, error)
}

// Worksheet is a named, ordered table of rows. Rows and columns are
// 1-indexed, matching the remote service's addressing.
type Worksheet interface {
	Rows(ctx context.Context) ([][]string, error)
	ColumnValues(ctx context.Context, col int) ([]string, error)
	AppendRow(ctx context.Context, values []string) error
	UpdateCell(ctx context.Context, row, col int, value string) error
}

// ErrorKind classifies store failures so callers can distinguish
// credential problems from missing resources and throttling.
type ErrorKind int

const (
	KindTransport ErrorKind = iota
	KindAuth
	KindNotFound
	KindRateLimit
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindRateLimit:
		return "rate_limit"
	default:
		return "transport"
	}
}

// StoreError is the typed failure returned by every store operation.
type StoreError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("sheets: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a store error for a missing resource.
func IsNotFound(err error) bool {
	se, ok := err.(*StoreError)
	return ok && se.Kind == KindNotFound
}

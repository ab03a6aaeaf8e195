package repository

import (
	"context"
	"errors"
)

var (
	ErrTableNotFound   = errors.New("table not found")
	ErrTableExists     = errors.New("table already exists")
	ErrRowNotFound     = errors.New("row not found")
	ErrColumnNotFound  = errors.New("column not found")
	ErrDuplicateColumn = errors.New("duplicate column name")
)

// Row is one data row of a table. Values is aligned with the header
// positions; a missing or never-written cell is the empty string.
type Row struct {
	Index  int
	Values []string
}

// Value returns the cell at col, or "" when the row is shorter.
func (r Row) Value(col int) string {
	if col < 0 || col >= len(r.Values) {
		return ""
	}
	return r.Values[col]
}

// CellUpdate addresses a single cell by row index and column position.
type CellUpdate struct {
	Row   int
	Col   int
	Value string
}

// TabularStore is a collection of named tables whose columns can be
// extended at any time.
type TabularStore interface {
	ListTables(ctx context.Context) ([]string, error)
	// GetTable returns ErrTableNotFound when no table has the name.
	GetTable(ctx context.Context, name string) (Table, error)
	// CreateTable creates the table and its initial rows in one atomic
	// step; on error nothing is left behind.
	CreateTable(ctx context.Context, name string, headers []string, rows ...[]string) (Table, error)
}

// Table is a handle on one table of a TabularStore.
type Table interface {
	Name() string
	Headers(ctx context.Context) ([]string, error)
	// AppendColumns adds every name not already present, all in one atomic
	// step, and returns the position of each requested name. Existing
	// columns keep their position.
	AppendColumns(ctx context.Context, names []string) ([]int, error)
	Rows(ctx context.Context) ([]Row, error)
	AppendRow(ctx context.Context, values []string) (int, error)
	SetCell(ctx context.Context, row, col int, value string) error
	// SetCells applies all updates or none of them.
	SetCells(ctx context.Context, updates []CellUpdate) error
}

// ColumnIndex returns the position of the header exactly equal to name, or -1.
func ColumnIndex(headers []string, name string) int {
	for i, h := range headers {
		if h == name {
			return i
		}
	}
	return -1
}

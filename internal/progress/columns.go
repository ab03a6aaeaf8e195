package progress

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/vytor/flashdeck/internal/logger"
	"github.com/vytor/flashdeck/internal/repository"
)

var ErrEmptyUsername = errors.New("username is empty")

// Column name suffixes of the per-user progress triple.
const (
	ratingSuffix     = "_Rating"
	lastReviewSuffix = "_LastReview"
	nextDueSuffix    = "_NextDue"
)

func RatingColumn(username string) string     { return username + ratingSuffix }
func LastReviewColumn(username string) string { return username + lastReviewSuffix }
func NextDueColumn(username string) string    { return username + nextDueSuffix }

// ColumnNames returns the user's progress columns in creation order.
func ColumnNames(username string) []string {
	return []string{RatingColumn(username), LastReviewColumn(username), NextDueColumn(username)}
}

// UserColumns holds header positions of one user's progress columns.
// A position of -1 means the column does not exist.
type UserColumns struct {
	Rating     int
	LastReview int
	NextDue    int
}

// Complete reports whether all three columns exist.
func (c UserColumns) Complete() bool {
	return c.Rating >= 0 && c.LastReview >= 0 && c.NextDue >= 0
}

// Present returns the positions of the columns that exist.
func (c UserColumns) Present() []int {
	var out []int
	for _, p := range []int{c.Rating, c.LastReview, c.NextDue} {
		if p >= 0 {
			out = append(out, p)
		}
	}
	return out
}

// NormalizeUsername trims surrounding whitespace. Names are otherwise used
// verbatim in column headers.
func NormalizeUsername(username string) (string, error) {
	u := strings.TrimSpace(username)
	if u == "" {
		return "", ErrEmptyUsername
	}
	return u, nil
}

// Manager creates and locates per-user progress columns on deck tables.
type Manager struct {
	locks *TableLocks
}

func NewManager(locks *TableLocks) *Manager {
	if locks == nil {
		locks = NewTableLocks()
	}
	return &Manager{locks: locks}
}

// Lock acquires the named lock of a table and returns its release func.
func (m *Manager) Lock(table string) func() {
	return m.locks.Lock(table)
}

// EnsureUserColumns returns the positions of the user's three progress
// columns, appending the missing ones in one step. When all three exist the
// table is not touched.
func (m *Manager) EnsureUserColumns(ctx context.Context, table repository.Table, username string) (UserColumns, error) {
	log := logger.FromContext(ctx).WithPrefix("progress").WithFields(map[string]interface{}{
		"deck": table.Name(),
		"user": username,
	})

	username, err := NormalizeUsername(username)
	if err != nil {
		return UserColumns{}, err
	}

	unlock := m.locks.Lock(table.Name())
	defer unlock()

	cols, err := lookup(ctx, table, username)
	if err != nil {
		return UserColumns{}, err
	}
	if cols.Complete() {
		return cols, nil
	}

	positions, err := table.AppendColumns(ctx, ColumnNames(username))
	if err != nil {
		log.Error("failed to create progress columns: %v", err)
		return UserColumns{}, fmt.Errorf("create progress columns: %w", err)
	}
	cols = UserColumns{Rating: positions[0], LastReview: positions[1], NextDue: positions[2]}
	log.Info("progress columns ready at %d,%d,%d", cols.Rating, cols.LastReview, cols.NextDue)
	return cols, nil
}

// LookupUserColumns locates the user's progress columns without creating
// anything. found is false unless all three exist.
func (m *Manager) LookupUserColumns(ctx context.Context, table repository.Table, username string) (cols UserColumns, found bool, err error) {
	username, err = NormalizeUsername(username)
	if err != nil {
		return UserColumns{}, false, err
	}
	cols, err = lookup(ctx, table, username)
	if err != nil {
		return UserColumns{}, false, err
	}
	return cols, cols.Complete(), nil
}

func lookup(ctx context.Context, table repository.Table, username string) (UserColumns, error) {
	headers, err := table.Headers(ctx)
	if err != nil {
		return UserColumns{}, err
	}
	return UserColumns{
		Rating:     repository.ColumnIndex(headers, RatingColumn(username)),
		LastReview: repository.ColumnIndex(headers, LastReviewColumn(username)),
		NextDue:    repository.ColumnIndex(headers, NextDueColumn(username)),
	}, nil
}

// TableLocks is a set of mutexes keyed by table name.
type TableLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewTableLocks() *TableLocks {
	return &TableLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *TableLocks) Lock(name string) func() {
	l.mu.Lock()
	m, ok := l.locks[name]
	if !ok {
		m = &sync.Mutex{}
		l.locks[name] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/flashdeck/internal/logger"
	"github.com/vytor/flashdeck/internal/repository"
)

type tabularStore struct {
	db *sql.DB
}

// NewTabularStore creates a TabularStore backed by the generic cell schema.
func NewTabularStore(db *sql.DB) repository.TabularStore {
	return &tabularStore{db: db}
}

func (s *tabularStore) ListTables(ctx context.Context) ([]string, error) {
	log := logger.FromContext(ctx).WithPrefix("tabular_store")

	query, args, err := sqlBuilder.Select("name").From("tabular_tables").OrderBy("name").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list tables: %v", err)
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			log.Error("failed to scan table name: %v", err)
			return nil, err
		}
		names = append(names, name)
	}
	log.Debug("found %d tables", len(names))
	return names, rows.Err()
}

func (s *tabularStore) GetTable(ctx context.Context, name string) (repository.Table, error) {
	id, err := lookupTableID(ctx, s.db, name)
	if err != nil {
		if !errors.Is(err, repository.ErrTableNotFound) {
			logger.FromContext(ctx).WithPrefix("tabular_store").Error("failed to look up table %s: %v", name, err)
		}
		return nil, err
	}
	return &table{db: s.db, id: id, name: name}, nil
}

func (s *tabularStore) CreateTable(ctx context.Context, name string, headers []string, rows ...[]string) (repository.Table, error) {
	log := logger.FromContext(ctx).WithPrefix("tabular_store")
	log.Debug("creating table %s with %d columns and %d rows", name, len(headers), len(rows))

	if err := checkDistinct(headers); err != nil {
		return nil, err
	}
	for i, row := range rows {
		if len(row) > len(headers) {
			return nil, fmt.Errorf("%w: row %d has %d values but table has %d columns", repository.ErrColumnNotFound, i, len(row), len(headers))
		}
	}

	var id int64
	err := tx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := lookupTableID(ctx, tx, name)
		if err == nil {
			return fmt.Errorf("%w: %s", repository.ErrTableExists, name)
		}
		if !errors.Is(err, repository.ErrTableNotFound) {
			return err
		}

		res, err := exec(ctx, tx, sqlBuilder.Insert("tabular_tables").Columns("name").Values(name))
		if err != nil {
			return err
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}
		if len(headers) > 0 {
			ins := sqlBuilder.Insert("tabular_columns").Columns("table_id", "position", "name")
			for i, h := range headers {
				ins = ins.Values(id, i, h)
			}
			if _, err := exec(ctx, tx, ins); err != nil {
				return err
			}
		}
		for i, row := range rows {
			if err := insertRow(ctx, tx, id, i, row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("failed to create table %s: %v", name, err)
		return nil, err
	}
	log.Info("table created: %s", name)
	return &table{db: s.db, id: id, name: name}, nil
}

type table struct {
	db   *sql.DB
	id   int64
	name string
}

func (t *table) Name() string { return t.name }

func (t *table) Headers(ctx context.Context) ([]string, error) {
	headers, err := headersOf(ctx, t.db, t.id)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("tabular_store").Error("failed to read headers of %s: %v", t.name, err)
	}
	return headers, err
}

func (t *table) AppendColumns(ctx context.Context, names []string) ([]int, error) {
	log := logger.FromContext(ctx).WithPrefix("tabular_store").WithField("table", t.name)

	if err := checkDistinct(names); err != nil {
		return nil, err
	}

	var positions []int
	var added int64
	err := tx(ctx, t.db, func(tx *sql.Tx) error {
		for _, name := range names {
			// The UNIQUE(table_id, name) constraint turns a concurrent
			// duplicate into a no-op instead of a second column.
			res, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO tabular_columns (table_id, position, name)
SELECT ?, COALESCE(MAX(position) + 1, 0), ? FROM tabular_columns WHERE table_id = ?
`, t.id, name, t.id)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			added += n
		}

		headers, err := headersOf(ctx, tx, t.id)
		if err != nil {
			return err
		}
		positions = make([]int, len(names))
		for i, name := range names {
			positions[i] = repository.ColumnIndex(headers, name)
		}
		return nil
	})
	if err != nil {
		log.Error("failed to append columns %v: %v", names, err)
		return nil, err
	}
	if added > 0 {
		log.Info("appended %d columns", added)
	}
	return positions, nil
}

func (t *table) Rows(ctx context.Context) ([]repository.Row, error) {
	log := logger.FromContext(ctx).WithPrefix("tabular_store").WithField("table", t.name)

	width, err := columnCount(ctx, t.db, t.id)
	if err != nil {
		log.Error("failed to count columns: %v", err)
		return nil, err
	}

	query, args, err := sqlBuilder.Select("row_index").
		From("tabular_rows").
		Where(squirrel.Eq{"table_id": t.id}).
		OrderBy("row_index").
		ToSql()
	if err != nil {
		return nil, err
	}
	rowRows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query rows: %v", err)
		return nil, err
	}
	var out []repository.Row
	byIndex := map[int]int{}
	for rowRows.Next() {
		var idx int
		if err := rowRows.Scan(&idx); err != nil {
			rowRows.Close()
			return nil, err
		}
		byIndex[idx] = len(out)
		out = append(out, repository.Row{Index: idx, Values: make([]string, width)})
	}
	if err := rowRows.Close(); err != nil {
		return nil, err
	}

	query, args, err = sqlBuilder.Select("row_index", "position", "value").
		From("tabular_cells").
		Where(squirrel.Eq{"table_id": t.id}).
		ToSql()
	if err != nil {
		return nil, err
	}
	cells, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query cells: %v", err)
		return nil, err
	}
	defer cells.Close()
	for cells.Next() {
		var idx, pos int
		var value string
		if err := cells.Scan(&idx, &pos, &value); err != nil {
			log.Error("failed to scan cell: %v", err)
			return nil, err
		}
		i, ok := byIndex[idx]
		if !ok || pos >= width {
			continue
		}
		out[i].Values[pos] = value
	}
	log.Debug("read %d rows", len(out))
	return out, cells.Err()
}

func (t *table) AppendRow(ctx context.Context, values []string) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("tabular_store").WithField("table", t.name)

	var idx int
	err := tx(ctx, t.db, func(tx *sql.Tx) error {
		width, err := columnCount(ctx, tx, t.id)
		if err != nil {
			return err
		}
		if len(values) > width {
			return fmt.Errorf("%w: row has %d values but table has %d columns", repository.ErrColumnNotFound, len(values), width)
		}

		query, args, err := sqlBuilder.Select("COALESCE(MAX(row_index) + 1, 0)").
			From("tabular_rows").
			Where(squirrel.Eq{"table_id": t.id}).
			ToSql()
		if err != nil {
			return err
		}
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&idx); err != nil {
			return err
		}
		return insertRow(ctx, tx, t.id, idx, values)
	})
	if err != nil {
		log.Error("failed to append row: %v", err)
		return 0, err
	}
	log.Debug("appended row %d", idx)
	return idx, nil
}

func (t *table) SetCell(ctx context.Context, row, col int, value string) error {
	return t.SetCells(ctx, []repository.CellUpdate{{Row: row, Col: col, Value: value}})
}

func (t *table) SetCells(ctx context.Context, updates []repository.CellUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	log := logger.FromContext(ctx).WithPrefix("tabular_store").WithField("table", t.name)

	err := tx(ctx, t.db, func(tx *sql.Tx) error {
		width, err := columnCount(ctx, tx, t.id)
		if err != nil {
			return err
		}
		known := map[int]bool{}
		for _, u := range updates {
			if u.Col < 0 || u.Col >= width {
				return fmt.Errorf("%w: position %d", repository.ErrColumnNotFound, u.Col)
			}
			if _, checked := known[u.Row]; !checked {
				exists, err := rowExists(ctx, tx, t.id, u.Row)
				if err != nil {
					return err
				}
				known[u.Row] = exists
			}
			if !known[u.Row] {
				return fmt.Errorf("%w: %d", repository.ErrRowNotFound, u.Row)
			}

			upsert := sqlBuilder.Insert("tabular_cells").
				Columns("table_id", "row_index", "position", "value").
				Values(t.id, u.Row, u.Col, u.Value).
				Suffix("ON CONFLICT(table_id, row_index, position) DO UPDATE SET value = excluded.value")
			if _, err := exec(ctx, tx, upsert); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("failed to set %d cells: %v", len(updates), err)
		return err
	}
	log.Debug("set %d cells", len(updates))
	return nil
}

// insertRow writes a row and its non-empty cells.
func insertRow(ctx context.Context, q execer, tableID int64, idx int, values []string) error {
	if _, err := exec(ctx, q, sqlBuilder.Insert("tabular_rows").Columns("table_id", "row_index").Values(tableID, idx)); err != nil {
		return err
	}

	ins := sqlBuilder.Insert("tabular_cells").Columns("table_id", "row_index", "position", "value")
	n := 0
	for pos, v := range values {
		if v == "" {
			continue
		}
		ins = ins.Values(tableID, idx, pos, v)
		n++
	}
	if n == 0 {
		return nil
	}
	_, err := exec(ctx, q, ins)
	return err
}

func lookupTableID(ctx context.Context, q execer, name string) (int64, error) {
	query, args, err := sqlBuilder.Select("id").From("tabular_tables").Where(squirrel.Eq{"name": name}).ToSql()
	if err != nil {
		return 0, err
	}
	var id int64
	err = q.QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", repository.ErrTableNotFound, name)
	}
	return id, err
}

func headersOf(ctx context.Context, q execer, tableID int64) ([]string, error) {
	query, args, err := sqlBuilder.Select("name").
		From("tabular_columns").
		Where(squirrel.Eq{"table_id": tableID}).
		OrderBy("position").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	headers := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		headers = append(headers, name)
	}
	return headers, rows.Err()
}

func columnCount(ctx context.Context, q execer, tableID int64) (int, error) {
	query, args, err := sqlBuilder.Select("COUNT(*)").From("tabular_columns").Where(squirrel.Eq{"table_id": tableID}).ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	err = q.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

func rowExists(ctx context.Context, q execer, tableID int64, row int) (bool, error) {
	query, args, err := sqlBuilder.Select("COUNT(*)").
		From("tabular_rows").
		Where(squirrel.Eq{"table_id": tableID, "row_index": row}).
		ToSql()
	if err != nil {
		return false, err
	}
	var n int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func checkDistinct(names []string) error {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			return fmt.Errorf("%w: %s", repository.ErrDuplicateColumn, n)
		}
		seen[n] = true
	}
	return nil
}

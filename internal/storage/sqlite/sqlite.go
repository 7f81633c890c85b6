// Package sqlite implements the tabular store on a local SQLite database,
// mirroring the external sheet's 26-column layout so batches written offline
// stay column-compatible.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"feedbackpipe/internal/storage"
)

// columnNames maps the 1-based layout index (A..Z) onto schema columns.
var columnNames = []string{
	"item_id", "title", "description", "source_type", "status", "priority",
	"product", "category", "segment", "department", "customer_segment",
	"company", "persona", "email", "internal", "contact",
	"created_date", "updated_date", "attendees", "tags",
	"meeting_type", "meeting_date", "source", "source_url", "use_case", "quote",
}

type Store struct {
	db   *sql.DB
	path string
}

var _ storage.TabularStore = (*Store)(nil)

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS feedback_rows (
		row_num          INTEGER PRIMARY KEY AUTOINCREMENT,
		item_id          TEXT NOT NULL,
		title            TEXT NOT NULL,
		description      TEXT DEFAULT '',
		source_type      TEXT DEFAULT '',
		status           TEXT DEFAULT '',
		priority         TEXT DEFAULT '',
		product          TEXT DEFAULT '',
		category         TEXT DEFAULT '',
		segment          TEXT DEFAULT '',
		department       TEXT DEFAULT '',
		customer_segment TEXT DEFAULT '',
		company          TEXT DEFAULT '',
		persona          TEXT DEFAULT '',
		email            TEXT DEFAULT '',
		internal         TEXT DEFAULT '',
		contact          TEXT DEFAULT '',
		created_date     TEXT DEFAULT '',
		updated_date     TEXT DEFAULT '',
		attendees        TEXT DEFAULT '',
		tags             TEXT DEFAULT '',
		meeting_type     TEXT DEFAULT '',
		meeting_date     TEXT DEFAULT '',
		source           TEXT DEFAULT '',
		source_url       TEXT DEFAULT '',
		use_case         TEXT DEFAULT '',
		quote            TEXT DEFAULT '',
		appended_at      DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_feedback_rows_title ON feedback_rows(title);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init store schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Location() string { return s.path }

func colName(column int) (string, error) {
	if column < 1 || column > len(columnNames) {
		return "", fmt.Errorf("column %d out of range 1..%d", column, len(columnNames))
	}
	return columnNames[column-1], nil
}

func (s *Store) ColumnValues(ctx context.Context, column int) ([]string, error) {
	name, err := colName(column)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM feedback_rows WHERE %s != '' ORDER BY row_num`, name, name))
	if err != nil {
		return nil, fmt.Errorf("read column %s: %w", name, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func (s *Store) AppendRows(ctx context.Context, tableRows [][]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append rows: %w", err)
	}
	defer tx.Rollback()

	placeholders := "?"
	cols := columnNames[0]
	for _, name := range columnNames[1:] {
		cols += ", " + name
		placeholders += ", ?"
	}
	stmt, err := tx.PrepareContext(ctx,
		fmt.Sprintf(`INSERT INTO feedback_rows (%s) VALUES (%s)`, cols, placeholders))
	if err != nil {
		return fmt.Errorf("append rows: %w", err)
	}
	defer stmt.Close()

	for _, row := range tableRows {
		if len(row) != len(columnNames) {
			return fmt.Errorf("append rows: row has %d columns, want %d", len(row), len(columnNames))
		}
		args := make([]any, len(row))
		for i, v := range row {
			args[i] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("append rows: %w", err)
		}
	}
	return tx.Commit()
}

func (s *Store) RowCount(ctx context.Context, column int) (int, error) {
	name, err := colName(column)
	if err != nil {
		return 0, err
	}
	var count int
	err = s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM feedback_rows WHERE %s != ''`, name)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count column %s: %w", name, err)
	}
	// The table has no header row; count one anyway so row numbers line up
	// with the spreadsheet layout.
	return count + 1, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/loykin/oratr/internal/history"
)

// Sink writes history events to a SQLite database and can read them
// back for `oratr history` listings.
type Sink struct {
	db    *sql.DB
	table string
}

// New opens (or creates) the database at dsn.
// DSN format:
//   - "sqlite:///path/to/file.db"
//   - "sqlite://:memory:"
//   - "/path/to/file.db" (without prefix)
//   - ":memory:" (in-memory database)
func New(dsn, table string) (*Sink, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("empty SQLite DSN")
	}
	if err := history.ValidateTable(table); err != nil {
		return nil, err
	}
	if strings.HasPrefix(strings.ToLower(dsn), "sqlite://") {
		dsn = strings.TrimPrefix(dsn, "sqlite://")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	sink := &Sink{db: db, table: table}
	if err := sink.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return sink, nil
}

func (s *Sink) ensureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s(
			occurred_at TIMESTAMP NOT NULL,
			type TEXT NOT NULL,
			detail TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			status TEXT NOT NULL,
			error TEXT
		);`, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_type ON %s(type);`, s.table, s.table),
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sink) Send(ctx context.Context, e history.Event) error {
	var errCol interface{}
	if e.Error != "" {
		errCol = e.Error
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s(occurred_at, type, detail, duration_ms, status, error)
		VALUES(?, ?, ?, ?, ?, ?);`, s.table),
		e.OccurredAt.UTC(), string(e.Type), e.Detail, e.DurationMS, e.Status, errCol)
	return err
}

// Recent returns up to limit events, newest first, optionally filtered
// by type.
func (s *Sink) Recent(ctx context.Context, limit int, types ...history.EventType) ([]history.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	q := fmt.Sprintf(`SELECT occurred_at, type, detail, duration_ms, status, COALESCE(error, '') FROM %s`, s.table)
	args := make([]interface{}, 0, len(types)+1)
	if len(types) > 0 {
		marks := make([]string, len(types))
		for i, t := range types {
			marks[i] = "?"
			args = append(args, string(t))
		}
		q += " WHERE type IN (" + strings.Join(marks, ",") + ")"
	}
	q += " ORDER BY occurred_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []history.Event
	for rows.Next() {
		var e history.Event
		var typ string
		if err := rows.Scan(&e.OccurredAt, &typ, &e.Detail, &e.DurationMS, &e.Status, &e.Error); err != nil {
			return nil, err
		}
		e.Type = history.EventType(typ)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Sink) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

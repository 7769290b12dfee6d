package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/loykin/oratr/internal/history"
)

// Sink sends events to ClickHouse using the official native client.
type Sink struct {
	conn  driver.Conn
	table string
}

// New connects to addr ("host:port", native protocol) and creates the
// event table when missing.
func New(addr, table string) (*Sink, error) {
	if err := history.ValidateTable(table); err != nil {
		return nil, err
	}
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: "default",
			Username: "default",
			Password: "",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connect to ClickHouse: %w", err)
	}
	if err := conn.Ping(context.Background()); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping ClickHouse: %w", err)
	}

	s := &Sink{conn: conn, table: table}
	if err := s.ensureSchema(context.Background()); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Sink) ensureSchema(ctx context.Context) error {
	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		occurred_at DateTime64(3),
		type String,
		detail String,
		duration_ms Int64,
		status String,
		error String
	) ENGINE = MergeTree()
	ORDER BY (occurred_at, type)`, s.table)
	return s.conn.Exec(ctx, q)
}

func (s *Sink) Send(ctx context.Context, e history.Event) error {
	q := fmt.Sprintf(`INSERT INTO %s (occurred_at, type, detail, duration_ms, status, error) VALUES (?, ?, ?, ?, ?, ?)`, s.table)
	err := s.conn.Exec(ctx, q,
		e.OccurredAt,
		string(e.Type),
		e.Detail,
		e.DurationMS,
		e.Status,
		e.Error,
	)
	if err != nil {
		return fmt.Errorf("insert event into ClickHouse: %w", err)
	}
	return nil
}

func (s *Sink) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

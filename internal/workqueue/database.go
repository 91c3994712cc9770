package workqueue

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

// DatabaseConnector reads the queue from a Postgres table. It is the only
// strategy that authenticates with its own credentials and can always write back.
type DatabaseConnector struct {
	DSN   string
	Table string
	// Open defaults to sql.Open with the lib/pq driver.
	Open func(driverName, dsn string) (*sql.DB, error)
}

// Name implements Connector.
func (c *DatabaseConnector) Name() string { return StrategyDatabase }

// Connect opens and pings the database. The reference is ignored; the table is configured.
func (c *DatabaseConnector) Connect(ctx context.Context, _ string) (Connection, error) {
	if strings.TrimSpace(c.DSN) == "" {
		return nil, fmt.Errorf("database: %w: no dsn", ErrNotConfigured)
	}
	open := c.Open
	if open == nil {
		open = sql.Open
	}
	db, err := open("postgres", c.DSN)
	if err != nil {
		return nil, fmt.Errorf("database: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database: ping: %w", err)
	}
	table := c.Table
	if table == "" {
		table = "listings"
	}
	return &databaseConnection{db: db, table: table}, nil
}

type databaseConnection struct {
	db    *sql.DB
	table string

	mu   sync.Mutex
	keys map[int64]string
}

func (c *databaseConnection) Strategy() string { return StrategyDatabase }

func (c *databaseConnection) Close() error { return c.db.Close() }

func (c *databaseConnection) Fetch(ctx context.Context) (Table, error) {
	query, args, err := sq.Select("*").
		From(pq.QuoteIdentifier(c.table)).
		OrderBy("id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return Table{}, fmt.Errorf("database: build select: %w", err)
	}
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Table{}, fmt.Errorf("database: select: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return Table{}, fmt.Errorf("database: columns: %w", err)
	}
	idColumn := -1
	for i, name := range columns {
		if strings.EqualFold(name, "id") {
			idColumn = i
			break
		}
	}

	table := Table{Header: columns}
	keys := make(map[int64]string)
	for rows.Next() {
		cells := make([]sql.NullString, len(columns))
		dest := make([]any, len(columns))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return Table{}, fmt.Errorf("database: scan: %w", err)
		}
		row := make([]string, len(columns))
		for i, cell := range cells {
			row[i] = cell.String
		}
		if idColumn >= 0 {
			keys[int64(len(table.Rows))+2] = row[idColumn]
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return Table{}, fmt.Errorf("database: iterate: %w", err)
	}

	c.mu.Lock()
	c.keys = keys
	c.mu.Unlock()
	return table, nil
}

// WriteCell updates one column of the row fetched at cell.Row.
func (c *databaseConnection) WriteCell(ctx context.Context, cell Cell, value string) error {
	if cell.Header == "" {
		return fmt.Errorf("database: column %d has no name", cell.Column)
	}
	c.mu.Lock()
	key, ok := c.keys[cell.Row]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("database: row %d not in last fetch", cell.Row)
	}
	query, args, err := sq.Update(pq.QuoteIdentifier(c.table)).
		Set(pq.QuoteIdentifier(cell.Header), value).
		Where(sq.Eq{"id": key}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("database: build update: %w", err)
	}
	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("database: update row %d: %w", cell.Row, err)
	}
	return nil
}

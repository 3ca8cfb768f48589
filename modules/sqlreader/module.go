// Package sqlreader executes stored queries directly against a SQL
// database through database/sql. The "sqlite" (modernc.org/sqlite) and
// "pgx" (PostgreSQL) drivers are linked in.
package sqlreader

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/vk/reportgrid/internal/collab"
	"github.com/vk/reportgrid/internal/ctxlog"
	"github.com/vk/reportgrid/internal/model"
	"github.com/vk/reportgrid/internal/registry"
	_ "modernc.org/sqlite"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the "sql" query backend.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterQueries("sql", func(ctx context.Context, env registry.Env) (collab.QueryExecutor, error) {
		dsn, err := env.Settings.RequireString("dsn")
		if err != nil {
			return nil, err
		}
		return Open(ctx, env.Settings.String("driver", "pgx"), dsn, env.Settings.Int("max_open_conns", 0))
	})
}

// Reader is a QueryExecutor over a *sql.DB.
type Reader struct {
	db *sql.DB
}

// Open connects to dsn with the named driver and checks the connection.
func Open(ctx context.Context, driver, dsn string, maxOpen int) (*Reader, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s database: %w", driver, err)
	}
	return &Reader{db: db}, nil
}

// New wraps an open database.
func New(db *sql.DB) *Reader {
	return &Reader{db: db}
}

// Close closes the underlying database.
func (r *Reader) Close() error {
	return r.db.Close()
}

// Execute runs text and returns at most limit rows keyed by column name.
// A negative limit means unlimited.
func (r *Reader) Execute(ctx context.Context, text string, params []any, limit int) ([]model.Row, error) {
	logger := ctxlog.FromContext(ctx)
	rows, err := r.db.QueryContext(ctx, text, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := make([]model.Row, 0)
	for rows.Next() {
		if limit >= 0 && len(out) >= limit {
			break
		}
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(model.Row, len(cols))
		for i, c := range cols {
			row[c] = normalize(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logger.Debug("Query executed.", "rows", len(out))
	return out, nil
}

// normalize turns driver values into JSON friendly ones.
func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// Package sqlasync runs a synchronous database/sql driver behind a single
// worker goroutine. Every driver call is queued to that goroutine in
// submission order and handed back to the caller as a Future, so any number
// of goroutines can share one connection pool without touching it directly.
package sqlasync

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/hata-go/hata/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Dialect identifies the SQL flavour behind an engine.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// Options configures an Engine.
type Options struct {
	// QueueSize is the number of jobs that may wait for the worker before
	// submitters block.
	QueueSize int

	// QueryTimeout bounds every statement. Zero disables the bound.
	QueryTimeout time.Duration

	// MaxOpenConns caps the pool. Zero keeps the driver default.
	MaxOpenConns int

	// Logger receives worker diagnostics. Nil discards them.
	Logger *logger.Logger
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		QueueSize:    64,
		QueryTimeout: 30 * time.Second,
	}
}

// target is a parsed database url.
type target struct {
	driver  string
	dsn     string
	dialect Dialect
}

// parseURL maps a database url onto a registered driver.
func parseURL(raw string) (target, error) {
	switch {
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return target{driver: "pgx", dsn: raw, dialect: DialectPostgres}, nil
	case raw == "sqlite::memory:", raw == "sqlite://:memory:":
		// Each engine gets its own shared-cache database so every pooled
		// connection sees the same tables.
		dsn := fmt.Sprintf("file:hata-%s?mode=memory&cache=shared", uuid.NewString())
		return target{driver: "sqlite", dsn: dsn, dialect: DialectSQLite}, nil
	case strings.HasPrefix(raw, "sqlite://"):
		path := strings.TrimPrefix(raw, "sqlite://")
		if path == "" {
			return target{}, fmt.Errorf("%w: %q has no path", ErrUnsupportedURL, raw)
		}
		return target{driver: "sqlite", dsn: path, dialect: DialectSQLite}, nil
	case strings.HasPrefix(raw, "file:"):
		return target{driver: "sqlite", dsn: raw, dialect: DialectSQLite}, nil
	default:
		return target{}, fmt.Errorf("%w: %q", ErrUnsupportedURL, raw)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ENGINE
// ══════════════════════════════════════════════════════════════════════════════

// Engine owns a connection pool and the worker that drives it.
type Engine struct {
	db      *sql.DB
	w       *worker
	dialect Dialect
	log     *logger.Logger
}

// Open connects to url and verifies the connection. Accepted urls are
// postgres://, postgresql://, sqlite://<path>, sqlite::memory: and file:.
func Open(ctx context.Context, url string, opts Options) (*Engine, error) {
	t, err := parseURL(url)
	if err != nil {
		return nil, err
	}

	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultOptions().QueueSize
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(logger.Component("sqlasync"), logger.String("dialect", string(t.dialect)))

	w := newWorker(opts.QueueSize, opts.QueryTimeout, log)

	var db *sql.DB
	_, err = run(ctx, w, func() (struct{}, error) {
		conn, err := sql.Open(t.driver, t.dsn)
		if err != nil {
			return struct{}{}, fmt.Errorf("sqlasync: open %s: %w", t.dialect, err)
		}
		if opts.MaxOpenConns > 0 {
			conn.SetMaxOpenConns(opts.MaxOpenConns)
		}

		pingCtx, cancel := w.statementContext(ctx)
		defer cancel()
		if err := conn.PingContext(pingCtx); err != nil {
			_ = conn.Close()
			return struct{}{}, fmt.Errorf("sqlasync: ping %s: %w", t.dialect, err)
		}
		db = conn
		return struct{}{}, nil
	})
	if err != nil {
		w.shutdown(func() {
			if db != nil {
				_ = db.Close()
			}
		})
		return nil, err
	}

	log.Debug("engine opened")
	return &Engine{db: db, w: w, dialect: t.dialect, log: log}, nil
}

// Dialect returns the SQL flavour of the engine.
func (e *Engine) Dialect() Dialect {
	return e.dialect
}

// Closed reports whether Close was called.
func (e *Engine) Closed() bool {
	return e.w.isClosed()
}

// Close drains queued work, closes the pool and stops the worker.
func (e *Engine) Close() error {
	var err error
	closed := e.w.isClosed()
	e.w.shutdown(func() {
		err = e.db.Close()
	})
	if !closed {
		e.log.Debug("engine closed", logger.Err(err))
	}
	return err
}

// Submit schedules arbitrary work against the pool on the worker.
// fn must not wait on other futures of the same engine.
func Submit[T any](ctx context.Context, e *Engine, fn func(ctx context.Context, db *sql.DB) (T, error)) *Future[T] {
	return submit(ctx, e.w, func() (T, error) {
		jobCtx, cancel := e.w.statementContext(ctx)
		defer cancel()
		return fn(jobCtx, e.db)
	})
}

// Ping verifies the database is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	_, err := run(ctx, e.w, func() (struct{}, error) {
		pingCtx, cancel := e.w.statementContext(ctx)
		defer cancel()
		return struct{}{}, e.db.PingContext(pingCtx)
	})
	return err
}

// Exec runs a statement that returns no rows.
func (e *Engine) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	return execOn(ctx, e.w, e.db, query, args)
}

// Query runs a statement and returns its rows.
func (e *Engine) Query(ctx context.Context, query string, args ...any) (*Rows, error) {
	return queryOn(ctx, e.w, e.db, query, args)
}

// Scalar returns the first column of the first row, or nil for no rows.
func (e *Engine) Scalar(ctx context.Context, query string, args ...any) (any, error) {
	return scalarOn(ctx, e.w, e.db, query, args)
}

// Connect checks a dedicated connection out of the pool.
func (e *Engine) Connect(ctx context.Context) (*Conn, error) {
	return claim(ctx, e.w, func() (*Conn, error) {
		c, err := e.db.Conn(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		return &Conn{w: e.w, conn: c}, nil
	}, func(c *Conn) {
		c.closeOnWorker()
	})
}

// Begin starts a transaction on a pooled connection.
func (e *Engine) Begin(ctx context.Context) (*Tx, error) {
	return beginOn(ctx, e.w, e.db, nil)
}

// WithTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back otherwise. Each statement is its own job, so
// statements of concurrent transactions interleave; use Transact when
// callers may contend for the same rows.
func (e *Engine) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := e.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			return fmt.Errorf("tx error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit error: %w", err)
	}
	return nil
}

// Transact runs fn inside a transaction as a single job, so no other job
// touches the pool between its statements. fn runs on the worker: it must use
// tx directly and must not call back into the engine. The transaction is
// committed when fn returns nil and rolled back otherwise, or on panic.
func (e *Engine) Transact(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	_, err := run(ctx, e.w, func() (struct{}, error) {
		txCtx, cancel := e.w.statementContext(ctx)
		defer cancel()

		tx, err := e.db.BeginTx(txCtx, nil)
		if err != nil {
			return struct{}{}, fmt.Errorf("begin: %w", err)
		}

		committed := false
		defer func() {
			if !committed {
				_ = tx.Rollback()
			}
		}()

		if err := fn(txCtx, tx); err != nil {
			return struct{}{}, err
		}
		if err := tx.Commit(); err != nil {
			return struct{}{}, fmt.Errorf("commit error: %w", err)
		}
		committed = true
		return struct{}{}, nil
	})
	return err
}

// TableNames lists the user tables of the current database.
func (e *Engine) TableNames(ctx context.Context) ([]string, error) {
	query := `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
	if e.dialect == DialectPostgres {
		query = `SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() ORDER BY table_name`
	}

	return run(ctx, e.w, func() ([]string, error) {
		qctx, cancel := e.w.statementContext(ctx)
		defer cancel()

		rows, err := e.db.QueryContext(qctx, query)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var names []string
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return nil, err
			}
			names = append(names, name)
		}
		return names, rows.Err()
	})
}

// HasTable reports whether a table with the given name exists.
func (e *Engine) HasTable(ctx context.Context, name string) (bool, error) {
	names, err := e.TableNames(ctx)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// Rebind rewrites ? placeholders into the engine's native form.
// Quoted literals are left alone.
func (e *Engine) Rebind(query string) string {
	if e.dialect != DialectPostgres {
		return query
	}

	var (
		b      strings.Builder
		n      int
		quoted bool
	)
	b.Grow(len(query) + 8)
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			quoted = !quoted
			b.WriteByte(c)
		case c == '?' && !quoted:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// ══════════════════════════════════════════════════════════════════════════════
// SHARED STATEMENT HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// querier is implemented by *sql.DB, *sql.Conn and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func execOn(ctx context.Context, w *worker, q querier, query string, args []any) (Result, error) {
	return run(ctx, w, func() (Result, error) {
		sctx, cancel := w.statementContext(ctx)
		defer cancel()

		res, err := q.ExecContext(sctx, query, args...)
		if err != nil {
			return Result{}, err
		}
		return newResult(res), nil
	})
}

// queryOn leaves the rows open after the job, so the statement context
// carries no timeout that could close them early.
func queryOn(ctx context.Context, w *worker, q querier, query string, args []any) (*Rows, error) {
	return claim(ctx, w, func() (*Rows, error) {
		rows, err := q.QueryContext(context.WithoutCancel(ctx), query, args...)
		if err != nil {
			return nil, err
		}
		return newRows(w, rows)
	}, func(r *Rows) {
		_ = r.closeOnWorker()
	})
}

func scalarOn(ctx context.Context, w *worker, q querier, query string, args []any) (any, error) {
	return run(ctx, w, func() (any, error) {
		sctx, cancel := w.statementContext(ctx)
		defer cancel()

		rows, err := q.QueryContext(sctx, query, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		if !rows.Next() {
			return nil, rows.Err()
		}
		columns, err := rows.Columns()
		if err != nil {
			return nil, err
		}
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if len(values) == 0 {
			return nil, nil
		}
		return values[0], nil
	})
}

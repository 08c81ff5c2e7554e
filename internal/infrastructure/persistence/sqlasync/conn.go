package sqlasync

import (
	"context"
	"database/sql"
	"sync/atomic"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONNECTION
// ══════════════════════════════════════════════════════════════════════════════

// Conn is a single connection checked out of the pool. Statements on it see
// the same session state.
type Conn struct {
	w      *worker
	conn   *sql.Conn
	tx     atomic.Pointer[Tx]
	closed atomic.Bool
}

// Closed reports whether the connection was returned to the pool.
func (c *Conn) Closed() bool {
	return c.closed.Load()
}

// InTransaction reports whether a transaction begun on this connection is
// still active.
func (c *Conn) InTransaction() bool {
	tx := c.tx.Load()
	return tx != nil && tx.Active()
}

// Exec runs a statement on the connection.
func (c *Conn) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	if c.closed.Load() {
		return Result{}, ErrConnClosed
	}
	return execOn(ctx, c.w, c.conn, query, args)
}

// Query runs a statement on the connection and returns its rows.
func (c *Conn) Query(ctx context.Context, query string, args ...any) (*Rows, error) {
	if c.closed.Load() {
		return nil, ErrConnClosed
	}
	return queryOn(ctx, c.w, c.conn, query, args)
}

// Scalar returns the first column of the first row, or nil for no rows.
func (c *Conn) Scalar(ctx context.Context, query string, args ...any) (any, error) {
	if c.closed.Load() {
		return nil, ErrConnClosed
	}
	return scalarOn(ctx, c.w, c.conn, query, args)
}

// Begin starts a transaction on this connection.
func (c *Conn) Begin(ctx context.Context) (*Tx, error) {
	if c.closed.Load() {
		return nil, ErrConnClosed
	}
	return beginOn(ctx, c.w, c.conn, c)
}

// Close rolls back an active transaction and returns the connection to the
// pool.
func (c *Conn) Close(ctx context.Context) error {
	if c.closed.Load() {
		return nil
	}
	_, err := run(ctx, c.w, func() (struct{}, error) {
		return struct{}{}, c.closeOnWorker()
	})
	return err
}

func (c *Conn) closeOnWorker() error {
	if c.closed.Swap(true) {
		return nil
	}
	if tx := c.tx.Load(); tx != nil {
		_ = tx.finish(tx.tx.Rollback)
	}
	return c.conn.Close()
}

var _ beginner = (*sql.Conn)(nil)

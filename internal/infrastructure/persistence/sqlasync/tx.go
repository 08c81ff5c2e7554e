package sqlasync

import (
	"context"
	"database/sql"
	"sync/atomic"
)

// ══════════════════════════════════════════════════════════════════════════════
// TRANSACTION
// ══════════════════════════════════════════════════════════════════════════════

// Tx is a transaction driven by the worker.
type Tx struct {
	w    *worker
	tx   *sql.Tx
	conn *Conn
	done atomic.Bool
}

type beginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// beginOn opens a transaction. The transaction context is detached from
// ctx so it lives until Commit or Rollback.
func beginOn(ctx context.Context, w *worker, b beginner, conn *Conn) (*Tx, error) {
	return claim(ctx, w, func() (*Tx, error) {
		sqlTx, err := b.BeginTx(context.WithoutCancel(ctx), nil)
		if err != nil {
			return nil, err
		}
		tx := &Tx{w: w, tx: sqlTx, conn: conn}
		if conn != nil {
			conn.tx.Store(tx)
		}
		return tx, nil
	}, func(tx *Tx) {
		_ = tx.finish(tx.tx.Rollback)
	})
}

// Active reports whether the transaction was neither committed nor rolled
// back.
func (t *Tx) Active() bool {
	return !t.done.Load()
}

// Exec runs a statement inside the transaction.
func (t *Tx) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	if t.done.Load() {
		return Result{}, ErrTxDone
	}
	return execOn(ctx, t.w, t.tx, query, args)
}

// Query runs a statement inside the transaction and returns its rows.
func (t *Tx) Query(ctx context.Context, query string, args ...any) (*Rows, error) {
	if t.done.Load() {
		return nil, ErrTxDone
	}
	return queryOn(ctx, t.w, t.tx, query, args)
}

// Scalar returns the first column of the first row, or nil for no rows.
func (t *Tx) Scalar(ctx context.Context, query string, args ...any) (any, error) {
	if t.done.Load() {
		return nil, ErrTxDone
	}
	return scalarOn(ctx, t.w, t.tx, query, args)
}

// Commit commits the transaction.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done.Load() {
		return ErrTxDone
	}
	_, err := run(ctx, t.w, func() (struct{}, error) {
		return struct{}{}, t.finish(t.tx.Commit)
	})
	return err
}

// Rollback aborts the transaction.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done.Load() {
		return ErrTxDone
	}
	_, err := run(ctx, t.w, func() (struct{}, error) {
		return struct{}{}, t.finish(t.tx.Rollback)
	})
	return err
}

// Close rolls the transaction back if it is still active.
func (t *Tx) Close(ctx context.Context) error {
	if t.done.Load() {
		return nil
	}
	return t.Rollback(ctx)
}

// finish ends the transaction once. It runs on the worker.
func (t *Tx) finish(end func() error) error {
	if t.done.Swap(true) {
		return ErrTxDone
	}
	if t.conn != nil {
		t.conn.tx.CompareAndSwap(t, nil)
	}
	return end()
}

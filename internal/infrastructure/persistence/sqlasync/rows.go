package sqlasync

import (
	"context"
	"database/sql"
	"iter"
	"sync/atomic"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROW
// ══════════════════════════════════════════════════════════════════════════════

// Row is one fetched row. Values hold what the driver returned.
type Row struct {
	Columns []string
	Values  []any
}

// Value returns the value of the named column.
func (r Row) Value(column string) (any, bool) {
	for i, name := range r.Columns {
		if name == column {
			return r.Values[i], true
		}
	}
	return nil, false
}

// Map returns the row as column → value.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.Columns))
	for i, name := range r.Columns {
		m[name] = r.Values[i]
	}
	return m
}

// ══════════════════════════════════════════════════════════════════════════════
// ROWS
// ══════════════════════════════════════════════════════════════════════════════

// Rows is the result of a query. Every read runs on the worker.
type Rows struct {
	w       *worker
	rows    *sql.Rows
	columns []string
	closed  atomic.Bool
}

func newRows(w *worker, rows *sql.Rows) (*Rows, error) {
	columns, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, err
	}
	return &Rows{w: w, rows: rows, columns: columns}, nil
}

// Columns returns the column names.
func (r *Rows) Columns() []string {
	return r.columns
}

// Closed reports whether the result was closed or exhausted.
func (r *Rows) Closed() bool {
	return r.closed.Load()
}

// next reads one row. It must run on the worker.
func (r *Rows) next() (*Row, error) {
	if r.closed.Load() {
		return nil, ErrRowsClosed
	}
	if !r.rows.Next() {
		err := r.rows.Err()
		r.closeOnWorker()
		return nil, err
	}

	values := make([]any, len(r.columns))
	dest := make([]any, len(r.columns))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := r.rows.Scan(dest...); err != nil {
		r.closeOnWorker()
		return nil, err
	}
	return &Row{Columns: r.columns, Values: values}, nil
}

func (r *Rows) closeOnWorker() error {
	if r.closed.Swap(true) {
		return nil
	}
	return r.rows.Close()
}

// FetchOne returns the next row, or nil once the result is exhausted. The
// result closes itself after the last row.
func (r *Rows) FetchOne(ctx context.Context) (*Row, error) {
	if r.closed.Load() {
		return nil, nil
	}
	return run(ctx, r.w, r.next)
}

// FetchMany returns up to n rows.
func (r *Rows) FetchMany(ctx context.Context, n int) ([]Row, error) {
	if r.closed.Load() {
		return nil, nil
	}
	return run(ctx, r.w, func() ([]Row, error) {
		var out []Row
		for len(out) < n && !r.closed.Load() {
			row, err := r.next()
			if err != nil {
				return out, err
			}
			if row == nil {
				break
			}
			out = append(out, *row)
		}
		return out, nil
	})
}

// FetchAll returns every remaining row and closes the result.
func (r *Rows) FetchAll(ctx context.Context) ([]Row, error) {
	if r.closed.Load() {
		return nil, nil
	}
	return run(ctx, r.w, func() ([]Row, error) {
		var out []Row
		for {
			row, err := r.next()
			if err != nil {
				return out, err
			}
			if row == nil {
				return out, nil
			}
			out = append(out, *row)
		}
	})
}

// First returns the first row and closes the result.
func (r *Rows) First(ctx context.Context) (*Row, error) {
	if r.closed.Load() {
		return nil, nil
	}
	return run(ctx, r.w, func() (*Row, error) {
		row, err := r.next()
		if closeErr := r.closeOnWorker(); err == nil {
			err = closeErr
		}
		return row, err
	})
}

// Scalar returns the first column of the first row and closes the result.
// An empty result yields nil.
func (r *Rows) Scalar(ctx context.Context) (any, error) {
	row, err := r.First(ctx)
	if err != nil || row == nil || len(row.Values) == 0 {
		return nil, err
	}
	return row.Values[0], nil
}

// All iterates the remaining rows. Iteration stops at the first error,
// which is yielded with a zero row.
func (r *Rows) All(ctx context.Context) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		for {
			row, err := r.FetchOne(ctx)
			if err != nil {
				yield(Row{}, err)
				return
			}
			if row == nil {
				return
			}
			if !yield(*row, nil) {
				_ = r.Close(ctx)
				return
			}
		}
	}
}

// Close releases the result.
func (r *Rows) Close(ctx context.Context) error {
	if r.closed.Load() {
		return nil
	}
	_, err := run(ctx, r.w, func() (struct{}, error) {
		return struct{}{}, r.closeOnWorker()
	})
	return err
}

// ══════════════════════════════════════════════════════════════════════════════
// RESULT
// ══════════════════════════════════════════════════════════════════════════════

// Result is the outcome of an Exec. Its values are read on the worker when
// the statement completes.
type Result struct {
	rowsAffected    int64
	rowsAffectedErr error
	lastInsertID    int64
	lastInsertIDErr error
}

func newResult(res sql.Result) Result {
	var r Result
	r.rowsAffected, r.rowsAffectedErr = res.RowsAffected()
	r.lastInsertID, r.lastInsertIDErr = res.LastInsertId()
	return r
}

// RowsAffected returns the number of rows the statement changed.
func (r Result) RowsAffected() (int64, error) {
	return r.rowsAffected, r.rowsAffectedErr
}

// LastInsertID returns the id generated by the statement. Not every driver
// supports it; pgx does not.
func (r Result) LastInsertID() (int64, error) {
	return r.lastInsertID, r.lastInsertIDErr
}

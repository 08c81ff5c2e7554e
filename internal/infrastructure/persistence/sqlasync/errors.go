package sqlasync

import "errors"

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrEngineClosed is returned by every call made after Close.
	ErrEngineClosed = errors.New("sqlasync: engine is closed")

	// ErrUnsupportedURL indicates a database url with an unknown scheme.
	ErrUnsupportedURL = errors.New("sqlasync: unsupported database url")

	// ErrWorkerPanic wraps a panic recovered from a job.
	ErrWorkerPanic = errors.New("sqlasync: job panicked")

	// ErrRowsClosed is returned when reading from a closed result.
	ErrRowsClosed = errors.New("sqlasync: result is closed")

	// ErrConnClosed is returned when using a closed connection.
	ErrConnClosed = errors.New("sqlasync: connection is closed")

	// ErrTxDone is returned when using a committed or rolled back transaction.
	ErrTxDone = errors.New("sqlasync: transaction is already done")
)

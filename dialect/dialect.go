// Package dialect defines the interface between daolite and the embedded
// SQL storage engine.
//
// daolite targets a single engine, SQLite, reached through the pure-Go
// modernc.org/sqlite driver. The package still keeps the engine behind the
// small [Driver] interface so the mapping layer never touches database/sql
// directly and tests can substitute the engine.
package dialect

import "context"

// SQLite is the dialect name of the embedded engine.
const SQLite = "sqlite"

// ExecQuerier wraps the Exec and Query engine operations.
//
// For Exec, v is expected to be nil or *sql.Result. For Query, v is
// expected to be *sql.Rows.
type ExecQuerier interface {
	// Exec executes a statement that returns no rows.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a statement that returns rows.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the engine interface consumed by the mapping layer.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	Tx(ctx context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx is a transactional engine handle.
type Tx interface {
	ExecQuerier
	Commit() error
	Rollback() error
}

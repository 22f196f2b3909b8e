package daolite

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/syssam/daolite/dialect"
	daosql "github.com/syssam/daolite/dialect/sql"
	"github.com/syssam/daolite/schema"
)

// Registry owns the engine connection and one accessor per record type.
// Accessors are constructed lazily on first use and live for the lifetime
// of the registry.
type Registry struct {
	drv   dialect.Driver
	db    *sql.DB
	log   *slog.Logger
	debug bool

	mu        sync.Mutex
	accessors map[string]*accessor
}

// Open opens the embedded engine at url and returns a Registry on top of
// it. With writable set, the database is created if missing; a read-only
// open against a nonexistent resource is the single fatal failure in the
// system and returns an *OpenError. Use ":memory:" for an in-memory
// database.
func Open(url string, writable bool, opts ...Option) (*Registry, error) {
	drv, err := daosql.Open(dialect.SQLite, dsn(url, writable))
	if err != nil {
		return nil, &OpenError{URL: url, err: err}
	}
	db := drv.DB()
	// The engine is single-writer, and pooled connections would give each
	// in-memory open its own database.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, &OpenError{URL: url, err: err}
	}
	return NewRegistry(db, opts...), nil
}

// NewRegistry wraps an already opened engine connection. Most callers use
// Open; NewRegistry serves callers that manage the connection themselves.
func NewRegistry(db *sql.DB, opts ...Option) *Registry {
	drv := daosql.OpenDB(dialect.SQLite, db)
	r := &Registry{
		drv:       drv,
		db:        db,
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		accessors: make(map[string]*accessor),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.debug {
		r.drv = daosql.NewDebugDriver(drv, daosql.DebugWithLog(
			func(_ context.Context, v ...any) {
				r.log.Debug(fmt.Sprint(v...))
			},
		))
	}
	return r
}

// dsn rewrites the url for the engine driver, forcing read-only mode when
// write access was not requested.
func dsn(url string, writable bool) string {
	if writable {
		return url
	}
	if !strings.HasPrefix(url, "file:") {
		url = "file:" + url
	}
	if strings.Contains(url, "?") {
		return url + "&mode=ro"
	}
	return url + "?mode=ro"
}

// DB exposes the raw engine handle for DDL and DML that is not modeled as
// a first-class accessor operation, such as junction table maintenance.
func (r *Registry) DB() *sql.DB { return r.db }

// Close closes the engine connection. Statements prepared by accessors
// live on that connection and are finalized with it; there is no separate
// per-accessor teardown. Accessors must not be used after their registry
// is closed, and operations on one degrade rather than panic.
func (r *Registry) Close() error {
	return r.drv.Close()
}

// Tables returns the table names of all accessors constructed so far.
func (r *Registry) Tables() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.accessors))
	for _, a := range r.accessors {
		names = append(names, a.table)
	}
	return names
}

// accessor returns the unique core accessor for the descriptor,
// constructing it on first use.
func (r *Registry) accessor(desc *schema.Descriptor) *accessor {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accessors[desc.Name]; ok {
		return a
	}
	a := newAccessor(r, desc)
	r.accessors[desc.Name] = a
	return a
}

// accessorByName resolves a relation target through the schema registry.
// An unregistered name is logged and reported as nil; callers degrade.
func (r *Registry) accessorByName(name string) *accessor {
	r.mu.Lock()
	if a, ok := r.accessors[name]; ok {
		r.mu.Unlock()
		return a
	}
	r.mu.Unlock()
	desc, ok := schema.Lookup(name)
	if !ok {
		r.log.Error("related descriptor is not registered", "descriptor", name)
		return nil
	}
	return r.accessor(desc)
}

// GetAccessor returns the accessor for the record type T, constructing and
// caching its core exactly once per registry. The facade is a thin typed
// veneer; all state (statements, buffers, id counter) lives in the shared
// core.
func GetAccessor[T Entity](r *Registry) *Accessor[T] {
	var zero T
	return &Accessor[T]{core: r.accessor(zero.Descriptor())}
}

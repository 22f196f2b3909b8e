package daolite

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"

	daosql "github.com/syssam/daolite/dialect/sql"
	"github.com/syssam/daolite/schema"
)

// accessor is the per-type core: prepared statements, the id counter and
// the double-buffered write queue. Exactly one exists per (registry,
// descriptor); the typed Accessor facade shares it.
//
// Only add, flush and clear are safe for concurrent use. Everything else
// runs synchronously on the caller's goroutine.
type accessor struct {
	reg   *Registry
	desc  *schema.Descriptor
	table string
	log   *slog.Logger

	insertStmt     *sql.Stmt
	selectAllStmt  *sql.Stmt
	selectByIDStmt *sql.Stmt

	mu       sync.Mutex
	flushMu  sync.Mutex
	writeBuf []any
	flushBuf []any

	idCounter   uint32
	initialized bool
}

// newAccessor derives the schema for the descriptor, creates the table and
// its junction tables, and prepares the statement set. Any failure is
// logged and leaves the accessor permanently uninitialized; it never
// panics and later operations degrade to false, empty or no-op.
func newAccessor(r *Registry, desc *schema.Descriptor) *accessor {
	a := &accessor{
		reg:   r,
		desc:  desc,
		table: desc.Table(),
		log:   r.log.With("table", desc.Table()),
	}
	if err := desc.Validate(); err != nil {
		a.log.Error("invalid descriptor", "err", err)
		return a
	}
	a.initialized = a.createTables() && a.prepareStatements()
	return a
}

// createTables executes the CREATE TABLE statement and, for each List
// field, the junction table DDL. Junction tables are created immediately
// during schema derivation rather than prepared.
func (a *accessor) createTables() bool {
	ctx := context.Background()
	ddl := schema.CreateSQL(a.desc)
	a.log.Debug("create table", "sql", ddl)
	if err := a.reg.drv.Exec(ctx, ddl, []any{}, nil); err != nil {
		a.log.Error("could not create table", "err", err)
		return false
	}
	ok := true
	for _, f := range a.desc.Fields {
		if f.Kind != schema.List {
			continue
		}
		jddl := schema.JunctionCreateSQL(a.desc, f)
		a.log.Debug("create junction table", "sql", jddl)
		if err := a.reg.drv.Exec(ctx, jddl, []any{}, nil); err != nil {
			a.log.Error("could not create junction table", "field", f.Name, "err", err)
			ok = false
		}
	}
	return ok
}

// prepareStatements prepares the insert, select-all and select-by-id
// statements against the engine.
func (a *accessor) prepareStatements() bool {
	ok := true
	for _, s := range []struct {
		name string
		sql  string
		dst  **sql.Stmt
	}{
		{"insert", schema.InsertSQL(a.desc), &a.insertStmt},
		{"select all", schema.SelectAllSQL(a.desc), &a.selectAllStmt},
		{"select by id", schema.SelectByIDSQL(a.desc), &a.selectByIDStmt},
	} {
		a.log.Debug("prepare statement", "sql", s.sql)
		stmt, err := a.reg.db.Prepare(s.sql)
		if err != nil {
			a.log.Error("could not prepare statement", "statement", s.name, "err", err)
			ok = false
			continue
		}
		*s.dst = stmt
	}
	return ok
}

// insertRecord assigns the record's id, cascades into related records and
// executes the prepared insert. A child insert always happens before the
// parent binds that child's id.
func (a *accessor) insertRecord(rec any) bool {
	if !a.initialized || a.insertStmt == nil {
		return false
	}
	switch id := a.desc.ID(rec); {
	case id == Unassigned:
		a.idCounter++
		a.desc.SetID(rec, a.idCounter)
	case id <= a.idCounter:
		a.log.Error("manually assigned id is not above the id counter; rejecting insert",
			"id", id, "counter", a.idCounter)
		return false
	default:
		a.log.Warn("manually assigned id is above the id counter; adopting it",
			"id", id, "counter", a.idCounter)
		a.idCounter = id
	}

	args := make([]any, 0, len(a.desc.Fields))
	for _, f := range a.desc.Fields {
		switch f.Kind {
		case schema.Embedded:
			child := f.Get(rec)
			ca := a.reg.accessorByName(f.Ref)
			if ca == nil {
				args = append(args, int64(0))
				continue
			}
			ca.insertRecord(child)
			args = append(args, int64(ca.desc.ID(child)))
		case schema.Ref:
			args = append(args, int64(f.Get(rec).(uint32)))
		case schema.List:
			a.insertChildren(rec, f)
		default:
			args = append(args, f.Get(rec))
		}
	}
	if _, err := a.insertStmt.Exec(args...); err != nil {
		a.log.Error("insert failed", "err", err)
		return false
	}
	return true
}

// insertChildren cascades a List field: every child is inserted through
// its own accessor, then one junction row per child records the pair. The
// parent id is already assigned at this point. Child failures are logged
// without aborting the remaining children.
func (a *accessor) insertChildren(rec any, f schema.Field) {
	ca := a.reg.accessorByName(f.Ref)
	if ca == nil {
		return
	}
	ctx := context.Background()
	jsql := schema.JunctionInsertSQL(a.desc, f)
	parentID := int64(a.desc.ID(rec))
	for _, child := range f.Get(rec).([]any) {
		ca.insertRecord(child)
		childID := int64(ca.desc.ID(child))
		a.log.Debug("junction insert", "parent", parentID, "child", childID)
		if err := a.reg.drv.Exec(ctx, jsql, []any{parentID, childID}, nil); err != nil {
			a.log.Error("junction insert failed", "field", f.Name, "err", err)
		}
	}
}

// add appends the record to the write buffer. Safe for concurrent
// producers.
func (a *accessor) add(rec any) {
	a.mu.Lock()
	a.writeBuf = append(a.writeBuf, rec)
	a.mu.Unlock()
}

// flush swaps the write and flush buffers under the lock, then inserts the
// drained batch in buffer order without holding it, so producers keep
// appending while the batch executes. Per-record failures do not abort the
// batch. Returns the number of records inserted.
func (a *accessor) flush() int {
	// Flushes serialize among themselves; only the swap blocks producers.
	a.flushMu.Lock()
	defer a.flushMu.Unlock()

	a.mu.Lock()
	a.writeBuf, a.flushBuf = a.flushBuf[:0], a.writeBuf
	batch := a.flushBuf
	a.mu.Unlock()

	n := 0
	for _, rec := range batch {
		if a.insertRecord(rec) {
			n++
		}
	}

	a.mu.Lock()
	a.flushBuf = a.flushBuf[:0]
	a.mu.Unlock()
	return n
}

// clear discards both buffers, dropping unflushed records.
func (a *accessor) clear() {
	a.mu.Lock()
	a.writeBuf = a.writeBuf[:0]
	a.flushBuf = a.flushBuf[:0]
	a.mu.Unlock()
}

// loadAll executes the select-all statement.
func (a *accessor) loadAll() []any {
	if !a.initialized || a.selectAllStmt == nil {
		a.log.Error("select all statement not prepared")
		return nil
	}
	rows, err := a.selectAllStmt.Query()
	if err != nil {
		a.log.Error("select all failed", "err", err)
		return nil
	}
	return a.scanRows(rows)
}

// loadByID executes the primary-key lookup.
func (a *accessor) loadByID(id uint32) (any, bool) {
	if !a.initialized || a.selectByIDStmt == nil {
		a.log.Error("select by id statement not prepared")
		return nil, false
	}
	rows, err := a.selectByIDStmt.Query(int64(id))
	if err != nil {
		a.log.Error("select by id failed", "id", id, "err", err)
		return nil, false
	}
	recs := a.scanRows(rows)
	if len(recs) == 0 {
		return nil, false
	}
	return recs[0], true
}

// scanRows materializes records from the result set: scalars are copied,
// Ref columns populate only the id, Embedded columns load the full child
// through its accessor (falling back to the bare id when the row is
// missing), and List fields are reloaded from their junction tables.
//
// All rows are drained and the result set closed before any relation
// loads run, since those issue further statements on the single engine
// connection.
func (a *accessor) scanRows(rows *sql.Rows) []any {
	var scanned [][]any
	for rows.Next() {
		dest := a.scanDest()
		if err := rows.Scan(dest...); err != nil {
			a.log.Error("row scan failed", "err", err)
			continue
		}
		scanned = append(scanned, dest)
	}
	if err := rows.Err(); err != nil {
		a.log.Error("row iteration failed", "err", err)
	}
	rows.Close()

	recs := make([]any, 0, len(scanned))
	for _, dest := range scanned {
		recs = append(recs, a.materialize(dest))
	}
	return recs
}

// scanDest builds the scan targets for one row, one per column in field
// declaration order.
func (a *accessor) scanDest() []any {
	dest := make([]any, 0, len(a.desc.Fields))
	for _, f := range a.desc.Fields {
		switch f.Kind {
		case schema.List:
		case schema.Float:
			dest = append(dest, new(sql.NullFloat64))
		case schema.String:
			dest = append(dest, new(sql.NullString))
		case schema.Bytes:
			dest = append(dest, new([]byte))
		default: // Int, Embedded, Ref
			dest = append(dest, new(sql.NullInt64))
		}
	}
	return dest
}

// materialize turns one scanned row into a record and resolves its
// relation fields.
func (a *accessor) materialize(dest []any) any {
	rec := a.desc.New()
	i := 0
	for _, f := range a.desc.Fields {
		if f.Kind == schema.List {
			continue
		}
		v := dest[i]
		i++
		switch f.Kind {
		case schema.Int:
			if v := v.(*sql.NullInt64); v.Valid {
				f.Set(rec, v.Int64)
			}
		case schema.Float:
			if v := v.(*sql.NullFloat64); v.Valid {
				f.Set(rec, v.Float64)
			}
		case schema.String:
			if v := v.(*sql.NullString); v.Valid {
				f.Set(rec, v.String)
			}
		case schema.Bytes:
			f.Set(rec, *v.(*[]byte))
		case schema.Ref:
			if v := v.(*sql.NullInt64); v.Valid {
				f.Set(rec, uint32(v.Int64))
			}
		case schema.Embedded:
			if v := v.(*sql.NullInt64); v.Valid {
				a.loadEmbedded(rec, f, uint32(v.Int64))
			}
		}
	}
	for _, f := range a.desc.Fields {
		if f.Kind == schema.List {
			a.loadChildren(rec, f)
		}
	}
	return rec
}

// loadEmbedded eagerly loads an embedded child record by id. When the
// child row is missing, only the id is carried over.
func (a *accessor) loadEmbedded(rec any, f schema.Field, childID uint32) {
	ca := a.reg.accessorByName(f.Ref)
	if ca == nil {
		return
	}
	if child, ok := ca.loadByID(childID); ok {
		f.Set(rec, child)
		return
	}
	ca.desc.SetID(f.Get(rec), childID)
}

// loadChildren reloads a List field: the junction table yields the child
// ids for this parent in insertion order, and each child loads by id.
func (a *accessor) loadChildren(rec any, f schema.Field) {
	ca := a.reg.accessorByName(f.Ref)
	if ca == nil {
		return
	}
	ctx := context.Background()
	jsql := schema.JunctionSelectSQL(a.desc, f)
	a.log.Debug("junction query", "sql", jsql)
	var rows daosql.Rows
	if err := a.reg.drv.Query(ctx, jsql, []any{int64(a.desc.ID(rec))}, &rows); err != nil {
		a.log.Error("junction query failed", "field", f.Name, "err", err)
		return
	}
	var childIDs []uint32
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			a.log.Error("junction scan failed", "field", f.Name, "err", err)
			break
		}
		childIDs = append(childIDs, uint32(id))
	}
	rows.Close()
	for _, id := range childIDs {
		if child, ok := ca.loadByID(id); ok {
			f.Set(rec, child)
		}
	}
}

// Accessor is the typed facade over the per-type core. Obtain one with
// GetAccessor; facades are cheap and share the single core instance, so
// the id counter, buffers and prepared statements stay unique per type.
type Accessor[T Entity] struct {
	core *accessor
}

// TableName returns the table backing T.
func (a *Accessor[T]) TableName() string { return a.core.table }

// Initialized reports whether schema derivation and statement preparation
// succeeded. An uninitialized accessor degrades every operation.
func (a *Accessor[T]) Initialized() bool { return a.core.initialized }

// Insert persists the record immediately. A record with an unassigned id
// receives the next counter value; a manually assigned id is accepted only
// if strictly above the counter, which then adopts it. Embedded and List
// children are inserted through their own accessors first.
func (a *Accessor[T]) Insert(rec T) bool { return a.core.insertRecord(rec) }

// AddToBuffer appends the record to the write buffer. Safe to call
// concurrently from multiple producers.
func (a *Accessor[T]) AddToBuffer(rec T) { a.core.add(rec) }

// Flush drains the buffered records in order, inserting each one. The
// buffers swap under a short-held lock, so producers may keep appending
// during the flush. Returns the number of records inserted; per-record
// failures do not abort the batch.
func (a *Accessor[T]) Flush() int { return a.core.flush() }

// ClearBuffer discards all buffered records.
func (a *Accessor[T]) ClearBuffer() { a.core.clear() }

// SelectAll returns every record of the table.
func (a *Accessor[T]) SelectAll() []T {
	recs := a.core.loadAll()
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.(T))
	}
	return out
}

// SelectByID returns the record with the given id, if present.
func (a *Accessor[T]) SelectByID(id uint32) (T, bool) {
	rec, ok := a.core.loadByID(id)
	if !ok {
		var zero T
		return zero, false
	}
	return rec.(T), true
}

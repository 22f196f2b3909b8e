// Package daolite is a descriptor-driven object-relational mapper in front
// of an embedded SQLite engine.
//
// Calling code persists and retrieves plain structured records without
// hand-written SQL: table schema, CRUD statements and value binding are all
// derived from an ordered field-descriptor table per record type (see the
// schema package, and the daogen tool that generates descriptors from
// struct definitions).
//
// # Quick start
//
//	type Item struct {
//	    daolite.Base
//	    Name  string
//	    Price float64
//	}
//
//	// Descriptor and NewItem generated by daogen, or written by hand.
//
//	reg, err := daolite.Open(":memory:", true)
//	if err != nil {
//	    return err
//	}
//	defer reg.Close()
//
//	items := daolite.GetAccessor[*Item](reg)
//	items.Insert(&Item{Base: daolite.NewBase(), Name: "Widget", Price: 19.99})
//	for _, it := range items.SelectAll() {
//	    fmt.Println(it.ID, it.Name, it.Price)
//	}
//
// # Relationships
//
// A struct field of another record type is an embedded record: it persists
// to its own table, the parent row stores only its id, and it is loaded
// eagerly on select. A [ForeignKey] field stores only an id and resolves
// lazily on demand. A slice of record pointers is a one-to-many collection
// backed by a junction table.
//
// # Buffered writes
//
// Each accessor carries a double-buffered write queue. AddToBuffer is safe
// for concurrent producers; Flush swaps the buffers under a short-held lock
// and drains the previous batch without blocking producers. All other
// accessor operations are synchronous and must be serialized by the caller,
// as must concurrent flushes across accessors sharing one registry.
//
// # Failure model
//
// Open is the only operation that returns an error. A registry opened with
// write access creates the database if missing; opening read-only against a
// nonexistent resource fails. After construction, failures are logged and
// reported through return values only: an accessor whose schema derivation
// or statement preparation failed stays permanently uninitialized, and
// every operation on it degrades to false, empty or no-op.
package daolite

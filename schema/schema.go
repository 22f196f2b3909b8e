package schema

import (
	"fmt"
)

// Kind classifies a field for column mapping and value transfer.
type Kind uint8

const (
	// Invalid is the zero Kind and never valid in a descriptor.
	Invalid Kind = iota
	// Int covers integer and boolean fields, stored in an INTEGER column.
	// Values transfer as int64.
	Int
	// Float covers floating point fields, stored in a FLOAT column.
	// Values transfer as float64.
	Float
	// String covers text fields, stored in a TEXT column.
	String
	// Bytes covers binary fields, stored in a BLOB column.
	// Values transfer as []byte.
	Bytes
	// Embedded is a nested record persisted in its own table. The parent
	// stores only the child id in a <field>_id column and the child is
	// loaded eagerly on select.
	Embedded
	// Ref is a lazy reference to another record. Only the id is stored
	// (<field>_id column) and read back; resolution happens on demand.
	Ref
	// List is an ordered one-to-many collection. It contributes no parent
	// column; pairs of (parent id, child id) live in a junction table.
	List
)

var kindNames = [...]string{
	Invalid:  "invalid",
	Int:      "int",
	Float:    "float",
	String:   "string",
	Bytes:    "bytes",
	Embedded: "embedded",
	Ref:      "ref",
	List:     "list",
}

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// ColumnType returns the SQL column type used for the kind. List fields
// have no column of their own and return an empty string.
func (k Kind) ColumnType() string {
	switch k {
	case Int, Embedded, Ref:
		return "INTEGER"
	case Float:
		return "FLOAT"
	case String:
		return "TEXT"
	case Bytes:
		return "BLOB"
	default:
		return ""
	}
}

// Field is one entry of a descriptor's ordered field table.
//
// Get and Set move values between a record and the engine. The value type
// depends on Kind: int64 for Int, float64 for Float, string for String,
// []byte for Bytes and uint32 for Ref. For Embedded, Get returns a pointer
// to the child record and Set stores the loaded child pointer. For List,
// Get returns the current children as []any (each element a child pointer)
// and Set appends one loaded child.
type Field struct {
	Name string
	Kind Kind

	// Ref names the descriptor of the related type. Required for
	// Embedded, Ref and List fields, empty otherwise.
	Ref string

	Get func(rec any) any
	Set func(rec any, v any)
}

// Relation reports whether the field links to another descriptor.
func (f Field) Relation() bool {
	return f.Kind == Embedded || f.Kind == Ref || f.Kind == List
}

// Column returns the column name backing the field: the field name itself
// for scalars, <name>_id for Embedded and Ref fields, and an empty string
// for List fields, which have no column in the parent table.
func (f Field) Column() string {
	switch f.Kind {
	case Embedded, Ref:
		return f.Name + "_id"
	case List:
		return ""
	default:
		return f.Name
	}
}

// IDField builds the identity field every descriptor starts with. The
// column is named "id" and becomes the table's primary key.
func IDField(get func(rec any) uint32, set func(rec any, id uint32)) Field {
	return Field{
		Name: "id",
		Kind: Int,
		Get:  func(rec any) any { return int64(get(rec)) },
		Set:  func(rec any, v any) { set(rec, uint32(v.(int64))) },
	}
}

// Descriptor is the static description of one record type: a stable name
// and the ordered field table, identity first.
type Descriptor struct {
	// Name is the stable type tag. The table name is its snake_case form.
	Name string

	// Fields in declaration order. Fields[0] must be the id field.
	Fields []Field

	// New returns a pointer to a fresh record with an unassigned id.
	New func() any
}

// ID reads the record's identity through the descriptor's id field.
func (d *Descriptor) ID(rec any) uint32 {
	return uint32(d.Fields[0].Get(rec).(int64))
}

// SetID writes the record's identity through the descriptor's id field.
func (d *Descriptor) SetID(rec any, id uint32) {
	d.Fields[0].Set(rec, int64(id))
}

// Validate checks the structural invariants of the descriptor: a non-empty
// name, an id field in first position, getters and setters on every field,
// and a Ref target on every relation field. List fields may not point at
// descriptors that are themselves collections, which is enforced at the
// field level by requiring a named target type.
func (d *Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("schema: descriptor has no name")
	}
	if d.New == nil {
		return fmt.Errorf("schema: descriptor %q has no New factory", d.Name)
	}
	if len(d.Fields) == 0 || d.Fields[0].Name != "id" || d.Fields[0].Kind != Int {
		return fmt.Errorf("schema: descriptor %q must declare the id field first", d.Name)
	}
	for _, f := range d.Fields {
		if f.Kind == Invalid || int(f.Kind) >= len(kindNames) {
			return fmt.Errorf("schema: descriptor %q field %q has invalid kind", d.Name, f.Name)
		}
		if f.Get == nil || f.Set == nil {
			return fmt.Errorf("schema: descriptor %q field %q is missing accessors", d.Name, f.Name)
		}
		if f.Relation() && f.Ref == "" {
			return fmt.Errorf("schema: descriptor %q field %q names no related type", d.Name, f.Name)
		}
	}
	return nil
}

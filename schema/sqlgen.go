package schema

import (
	"strings"

	"github.com/go-openapi/inflect"
)

// TableName converts a type or descriptor name to its table name. The
// snake_case form keeps naming deterministic across process restarts and
// matches the names emitted by daogen.
func TableName(name string) string {
	return inflect.Underscore(name)
}

// Table returns the table backing the descriptor.
func (d *Descriptor) Table() string {
	return TableName(d.Name)
}

// Columns returns the column names of the descriptor's table in field
// declaration order. List fields contribute no column.
func (d *Descriptor) Columns() []string {
	cols := make([]string, 0, len(d.Fields))
	for _, f := range d.Fields {
		if c := f.Column(); c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

// CreateSQL derives the CREATE TABLE statement for the descriptor. Columns
// follow field declaration order with id first as primary key; Embedded and
// Ref fields become INTEGER columns with FOREIGN KEY clauses appended after
// the column list.
func CreateSQL(d *Descriptor) string {
	var b, fks strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(d.Table())
	b.WriteString(" (")
	first := true
	for _, f := range d.Fields {
		if f.Kind == List {
			continue
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(f.Column())
		b.WriteString(" ")
		b.WriteString(f.Kind.ColumnType())
		if f.Name == "id" {
			b.WriteString(" PRIMARY KEY")
		}
		if f.Kind == Embedded || f.Kind == Ref {
			fks.WriteString(", FOREIGN KEY (")
			fks.WriteString(f.Column())
			fks.WriteString(") REFERENCES ")
			fks.WriteString(TableName(f.Ref))
			fks.WriteString("(id)")
		}
	}
	b.WriteString(fks.String())
	b.WriteString(");")
	return b.String()
}

// InsertSQL derives the INSERT statement with one placeholder per column.
func InsertSQL(d *Descriptor) string {
	cols := d.Columns()
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(d.Table())
	b.WriteString(" (")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(") VALUES (")
	for i := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("?")
	}
	b.WriteString(");")
	return b.String()
}

// SelectAllSQL derives the full-scan SELECT statement.
func SelectAllSQL(d *Descriptor) string {
	return "SELECT " + strings.Join(d.Columns(), ", ") + " FROM " + d.Table() + ";"
}

// SelectByIDSQL derives the primary-key lookup SELECT statement.
func SelectByIDSQL(d *Descriptor) string {
	return "SELECT " + strings.Join(d.Columns(), ", ") + " FROM " + d.Table() + " WHERE id = ?;"
}

// JunctionTable returns the junction table name for a List field:
// <parentTable>_<childTable>.
func JunctionTable(d *Descriptor, f Field) string {
	return d.Table() + "_" + TableName(f.Ref)
}

// JunctionCreateSQL derives the junction table DDL for a List field. It is
// executed immediately during accessor construction rather than prepared.
func JunctionCreateSQL(d *Descriptor, f Field) string {
	parent, child := d.Table(), TableName(f.Ref)
	return "CREATE TABLE IF NOT EXISTS " + JunctionTable(d, f) +
		"(" + parent + "_id INTEGER, " + child + "_id INTEGER);"
}

// JunctionInsertSQL derives the statement adding one (parent id, child id)
// pair to a List field's junction table.
func JunctionInsertSQL(d *Descriptor, f Field) string {
	parent, child := d.Table(), TableName(f.Ref)
	return "INSERT INTO " + JunctionTable(d, f) +
		"(" + parent + "_id, " + child + "_id) VALUES (?, ?);"
}

// JunctionSelectSQL derives the statement listing the child ids recorded
// for one parent row, in insertion order.
func JunctionSelectSQL(d *Descriptor, f Field) string {
	parent, child := d.Table(), TableName(f.Ref)
	return "SELECT " + child + "_id FROM " + JunctionTable(d, f) +
		" WHERE " + parent + "_id = ?;"
}

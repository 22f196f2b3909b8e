package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/daolite/schema"
)

// item is a plain scalar record used across the generation tests.
type item struct {
	ID    uint32
	Name  string
	Price float64
}

func itemDescriptor() *schema.Descriptor {
	return &schema.Descriptor{
		Name: "Item",
		New:  func() any { return &item{} },
		Fields: []schema.Field{
			schema.IDField(
				func(rec any) uint32 { return rec.(*item).ID },
				func(rec any, id uint32) { rec.(*item).ID = id },
			),
			{Name: "name", Kind: schema.String,
				Get: func(rec any) any { return rec.(*item).Name },
				Set: func(rec any, v any) { rec.(*item).Name = v.(string) }},
			{Name: "price", Kind: schema.Float,
				Get: func(rec any) any { return rec.(*item).Price },
				Set: func(rec any, v any) { rec.(*item).Price = v.(float64) }},
		},
	}
}

// relDescriptor carries one field of every relation kind.
func relDescriptor() *schema.Descriptor {
	noop := schema.Field{
		Get: func(rec any) any { return nil },
		Set: func(rec any, v any) {},
	}
	field := func(name string, kind schema.Kind, ref string) schema.Field {
		f := noop
		f.Name, f.Kind, f.Ref = name, kind, ref
		return f
	}
	return &schema.Descriptor{
		Name: "RigidBody",
		New:  func() any { return nil },
		Fields: []schema.Field{
			schema.IDField(
				func(rec any) uint32 { return 0 },
				func(rec any, id uint32) {},
			),
			field("pos", schema.Embedded, "Vertex"),
			field("anchor", schema.Ref, "Vertex"),
			field("tags", schema.List, "Tag"),
		},
	}
}

// TestScalarTableShape checks the N scalar fields + id column property.
func TestScalarTableShape(t *testing.T) {
	t.Parallel()

	d := itemDescriptor()
	cols := d.Columns()
	require.Len(t, cols, 3) // two scalar fields + id
	assert.Equal(t, "id", cols[0])
	assert.Equal(t, "item", d.Table())
}

// TestCreateSQL checks column order, the primary key and type mapping.
func TestCreateSQL(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		"CREATE TABLE IF NOT EXISTS item (id INTEGER PRIMARY KEY, name TEXT, price FLOAT);",
		schema.CreateSQL(itemDescriptor()),
	)
}

// TestCreateSQLRelations checks the _id columns, the appended FOREIGN KEY
// clauses and that List fields add no parent column.
func TestCreateSQLRelations(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		"CREATE TABLE IF NOT EXISTS rigid_body ("+
			"id INTEGER PRIMARY KEY, pos_id INTEGER, anchor_id INTEGER"+
			", FOREIGN KEY (pos_id) REFERENCES vertex(id)"+
			", FOREIGN KEY (anchor_id) REFERENCES vertex(id));",
		schema.CreateSQL(relDescriptor()),
	)
}

// TestStatementSQL checks the generated DML and query text.
func TestStatementSQL(t *testing.T) {
	t.Parallel()

	d := itemDescriptor()
	assert.Equal(t, "INSERT INTO item (id, name, price) VALUES (?, ?, ?);", schema.InsertSQL(d))
	assert.Equal(t, "SELECT id, name, price FROM item;", schema.SelectAllSQL(d))
	assert.Equal(t, "SELECT id, name, price FROM item WHERE id = ?;", schema.SelectByIDSQL(d))
}

// TestJunctionSQL checks the junction table naming and statements for a
// one-to-many relation.
func TestJunctionSQL(t *testing.T) {
	t.Parallel()

	d := relDescriptor()
	f := d.Fields[3]
	assert.Equal(t, "rigid_body_tag", schema.JunctionTable(d, f))
	assert.Equal(t,
		"CREATE TABLE IF NOT EXISTS rigid_body_tag(rigid_body_id INTEGER, tag_id INTEGER);",
		schema.JunctionCreateSQL(d, f),
	)
	assert.Equal(t,
		"INSERT INTO rigid_body_tag(rigid_body_id, tag_id) VALUES (?, ?);",
		schema.JunctionInsertSQL(d, f),
	)
	assert.Equal(t,
		"SELECT tag_id FROM rigid_body_tag WHERE rigid_body_id = ?;",
		schema.JunctionSelectSQL(d, f),
	)
}

// TestTableName checks deterministic snake_case naming.
func TestTableName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "item", schema.TableName("Item"))
	assert.Equal(t, "rigid_body", schema.TableName("RigidBody"))
	assert.Equal(t, "order_item", schema.TableName("OrderItem"))
}

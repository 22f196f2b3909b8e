// Package schema describes how record types map to tables in daolite.
//
// Every persisted type is described by a [Descriptor]: an ordered table of
// [Field] entries, each carrying the field name, its [Kind], and a getter and
// setter closure. Descriptors replace runtime struct reflection; they are
// written by hand or generated with the daogen tool.
//
// # Defining a descriptor
//
//	var itemDescriptor = &schema.Descriptor{
//	    Name: "Item",
//	    New:  func() any { return &Item{Base: daolite.NewBase()} },
//	    Fields: []schema.Field{
//	        schema.IDField(
//	            func(rec any) uint32 { return rec.(*Item).ID },
//	            func(rec any, id uint32) { rec.(*Item).ID = id },
//	        ),
//	        {Name: "name", Kind: schema.String,
//	            Get: func(rec any) any { return rec.(*Item).Name },
//	            Set: func(rec any, v any) { rec.(*Item).Name = v.(string) }},
//	        {Name: "price", Kind: schema.Float,
//	            Get: func(rec any) any { return rec.(*Item).Price },
//	            Set: func(rec any, v any) { rec.(*Item).Price = v.(float64) }},
//	    },
//	}
//
//	func (*Item) Descriptor() *schema.Descriptor { return itemDescriptor }
//
// # Kinds
//
// Scalar kinds map directly to column types:
//
//	schema.Int     // INTEGER (integers and booleans)
//	schema.Float   // FLOAT
//	schema.String  // TEXT
//	schema.Bytes   // BLOB
//
// Relation kinds describe links to other descriptors:
//
//	schema.Embedded  // nested record, stored as <field>_id, eagerly loaded
//	schema.Ref       // lazy reference, stored as <field>_id, resolved on demand
//	schema.List      // one-to-many collection, backed by a junction table
//
// # SQL generation
//
// The CREATE, INSERT and SELECT statement text for a descriptor, together with
// the DDL and DML of its junction tables, is derived by the functions in
// sqlgen.go. Table names are the snake_case form of the descriptor name and
// are stable across process restarts.
package schema

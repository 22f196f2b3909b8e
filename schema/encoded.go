package schema

import (
	"github.com/vmihailenco/msgpack/v5"
)

// Encoded builds a Bytes field that persists an arbitrary Go value in a
// BLOB column, msgpack-encoded. It covers field types that have no scalar
// column mapping of their own, such as maps, slices or nested structs that
// should not become tables.
//
// A value that fails to encode is stored as NULL; a column that fails to
// decode leaves the field at its zero value. Both follow the degrade-only
// failure model of the accessor layer.
func Encoded[V any](name string, get func(rec any) V, set func(rec any, v V)) Field {
	return Field{
		Name: name,
		Kind: Bytes,
		Get: func(rec any) any {
			raw, err := msgpack.Marshal(get(rec))
			if err != nil {
				return []byte(nil)
			}
			return raw
		},
		Set: func(rec any, v any) {
			raw := v.([]byte)
			if len(raw) == 0 {
				return
			}
			var val V
			if err := msgpack.Unmarshal(raw, &val); err != nil {
				return
			}
			set(rec, val)
		},
	}
}

package daolite

import (
	"math"

	"github.com/syssam/daolite/schema"
)

// Unassigned is the sentinel id of a record that has not been inserted
// yet. Insert replaces it with the next value of the accessor's counter.
const Unassigned uint32 = math.MaxUint32

// Entity is the capability interface implemented once per record type.
// The method is expected to work on the zero (nil) receiver.
type Entity interface {
	// Descriptor returns the static field-descriptor table of the type.
	Descriptor() *schema.Descriptor
}

// Base is the embeddable identity shared by all record types.
type Base struct {
	// ID is the unique identifier of the record within its table.
	ID uint32
}

// NewBase returns a Base with an unassigned id, ready for Insert.
func NewBase() Base {
	return Base{ID: Unassigned}
}

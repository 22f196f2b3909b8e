package daolite

// refState tracks the explicit tri-state of a lazy reference.
type refState uint8

const (
	refUnresolved refState = iota
	refFound
	refMissing
)

// ForeignKey is a lazy reference to another record. Only the id is stored
// and read back from the engine; the full record loads on the first
// Resolve call and the result, including "not found", is cached for the
// lifetime of the instance. An id of zero means the reference is unset.
//
// Contrast with embedded record fields, which are always loaded eagerly on
// select: the asymmetry is deliberate. Use a ForeignKey when the related
// record is rarely needed.
type ForeignKey[T Entity] struct {
	// ID of the referenced record; zero when unset.
	ID uint32

	state refState
	value T
}

// Ref returns a ForeignKey pointing at the given id.
func Ref[T Entity](id uint32) ForeignKey[T] {
	return ForeignKey[T]{ID: id}
}

// IsSet reports whether the reference points at a record.
func (fk *ForeignKey[T]) IsSet() bool { return fk.ID != 0 }

// Resolve loads the referenced record through its accessor. An unset
// reference resolves to empty immediately. The first resolution is cached;
// Resolve never queries again for this instance, even when the record was
// not found.
func (fk *ForeignKey[T]) Resolve(r *Registry) (T, bool) {
	var zero T
	if fk.ID == 0 {
		return zero, false
	}
	if fk.state == refUnresolved {
		if v, ok := GetAccessor[T](r).SelectByID(fk.ID); ok {
			fk.state, fk.value = refFound, v
		} else {
			fk.state = refMissing
		}
	}
	if fk.state == refFound {
		return fk.value, true
	}
	return zero, false
}

package schema

import (
	"fmt"
	"sync"
)

var (
	regMu       sync.RWMutex
	descriptors = make(map[string]*Descriptor)
)

// Register makes a descriptor available under its name so relation fields
// of other descriptors can reach it. Generated code registers descriptors
// from init; hand-written descriptors involved in relations must do the
// same. Register panics on an invalid or duplicate descriptor, mirroring
// database/sql driver registration: the schema is fixed at build time and
// a bad registration is a programming error.
func Register(d *Descriptor) {
	if err := d.Validate(); err != nil {
		panic(err)
	}
	regMu.Lock()
	defer regMu.Unlock()
	if _, dup := descriptors[d.Name]; dup {
		panic(fmt.Sprintf("schema: Register called twice for descriptor %q", d.Name))
	}
	descriptors[d.Name] = d
}

// Lookup returns the descriptor registered under name.
func Lookup(name string) (*Descriptor, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	d, ok := descriptors[name]
	return d, ok
}

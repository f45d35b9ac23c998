package storage

import (
	"fmt"
	"reflect"

	"github.com/cespare/xxhash/v2"
)

// ComponentID is a stable identifier for a component type, derived from its
// fully qualified type name. It is used for stats, logs and metric labels;
// lookups are keyed by reflect.Type.
type ComponentID uint64

func (c ComponentID) String() string {
	return fmt.Sprintf("%016x", uint64(c))
}

// TypeName returns the fully qualified name of t.
func TypeName(t reflect.Type) string {
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

// ComponentIDOf hashes the fully qualified name of t.
func ComponentIDOf(t reflect.Type) ComponentID {
	return ComponentID(xxhash.Sum64String(TypeName(t)))
}

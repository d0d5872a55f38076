package capcast

import (
	"reflect"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/capcast/pkg/capset"
)

// header is what every handle knows about its value's concrete type.
type header struct {
	concrete reflect.Type
	table    *capset.Table[reflect.Type]
}

func (h header) contains(t Target) bool {
	if h.table == nil || t.Type == nil {
		return false
	}
	return h.table.Contains(t.entry())
}

func (h header) castableTypes() []Target {
	if h.table == nil {
		return nil
	}
	entries := h.table.Entries()
	out := make([]Target, len(entries))
	for i, e := range entries {
		out[i] = targetFromEntry(e)
	}
	return out
}

// Handle is implemented by Ref, Mut, Box, Rc and Arc.
type Handle interface {
	// Concrete returns the concrete type of the value behind the handle.
	Concrete() reflect.Type
	handleHeader() header
}

// CastableTypes returns every target the handle's value may be cast to. A
// consumed or dropped handle reports none.
func CastableTypes(h Handle) []Target {
	return h.handleHeader().castableTypes()
}

// CanCast reports whether T qualified by markers is in the castable set. It
// agrees with CastRef and CastMut. CastArc may still refuse a member target
// when the type lacks atomic-sharing evidence.
func CanCast[T any](h Handle, markers ...Marker) bool {
	return h.handleHeader().contains(TargetOf[T](markers...))
}

// CanCastTarget is CanCast for a Target built at runtime.
func CanCastTarget(h Handle, t Target) bool {
	return h.handleHeader().contains(t)
}

// Must unwraps a constructor result and panics on error.
func Must[H any](h H, err error) H {
	if err != nil {
		panic(err)
	}
	return h
}

// as views a stored value as T. Membership was checked by the caller; the
// assertion guards against a registry that was bypassed.
func as[T any](v any) (T, bool) {
	t, ok := v.(T)
	return t, ok
}

func newID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

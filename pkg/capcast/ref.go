package capcast

import "reflect"

// Ref is a borrowed, read-only view of a value. It stays valid as long as
// the owner of the value does.
type Ref[T any] struct {
	hdr  header
	slot *any
	// owned is set on views borrowed from a Box, Rc or Arc.
	owned bool
}

// Mut is a borrowed view with exclusive write access. It can be downgraded
// to a Ref; a Ref never upgrades.
type Mut[T any] struct {
	hdr   header
	slot  *any
	owned bool
}

// NewRef borrows v read-only through the Default registry.
func NewRef(v any) (Ref[Dyn], error) { return Default.NewRef(v) }

// NewMut borrows v with write access through the Default registry. See
// Registry.NewMut for what Set does on the result.
func NewMut(v any) (Mut[Dyn], error) { return Default.NewMut(v) }

// NewRef borrows v read-only.
func (r *Registry) NewRef(v any) (Ref[Dyn], error) {
	h, err := r.header(v)
	if err != nil {
		return Ref[Dyn]{}, err
	}
	return Ref[Dyn]{hdr: h, slot: &v}, nil
}

// NewMut borrows v with write access. The view holds its own copy of v, so
// Set on it fails with ErrNotOwned; methods reached through Get still act on
// whatever v points at. Borrow from a Box to replace the value.
func (r *Registry) NewMut(v any) (Mut[Dyn], error) {
	h, err := r.header(v)
	if err != nil {
		return Mut[Dyn]{}, err
	}
	return Mut[Dyn]{hdr: h, slot: &v}, nil
}

// Get returns the value, or the zero T once the owner has released it.
func (r Ref[T]) Get() T {
	var zero T
	if r.slot == nil {
		return zero
	}
	v, ok := as[T](*r.slot)
	if !ok {
		return zero
	}
	return v
}

// Valid reports whether the view still points at a live value.
func (r Ref[T]) Valid() bool {
	return r.slot != nil && *r.slot != nil
}

func (r Ref[T]) Concrete() reflect.Type { return r.hdr.concrete }
func (m Mut[T]) Concrete() reflect.Type { return m.hdr.concrete }
func (m Mut[T]) handleHeader() header   { return m.Ref().handleHeader() }
func (m Mut[T]) Valid() bool            { return m.Ref().Valid() }
func (m Mut[T]) Get() T                 { return m.Ref().Get() }
func (m Mut[T]) Ref() Ref[T]            { return Ref[T]{hdr: m.hdr, slot: m.slot, owned: m.owned} }

// A released view has nothing left to cast.
func (r Ref[T]) handleHeader() header {
	if !r.Valid() {
		return header{}
	}
	return r.hdr
}

// Set replaces the value held by the owner. The replacement must have the
// same concrete type, since the castable set belongs to that type.
func (m Mut[T]) Set(v T) error {
	if m.slot == nil || *m.slot == nil {
		return ErrConsumed
	}
	if !m.owned {
		return ErrNotOwned
	}
	if got := reflect.TypeOf(any(v)); got != m.hdr.concrete {
		return ErrConcreteChanged
	}
	*m.slot = v
	return nil
}

// CastRef views r as T. The second result is false when T qualified by
// markers is not in the castable set; r is untouched either way.
func CastRef[T, S any](r Ref[S], markers ...Marker) (Ref[T], bool) {
	if !r.handleHeader().contains(TargetOf[T](markers...)) {
		return Ref[T]{}, false
	}
	if _, ok := as[T](*r.slot); !ok {
		return Ref[T]{}, false
	}
	return Ref[T]{hdr: r.hdr, slot: r.slot, owned: r.owned}, true
}

// CastMut views m as T with write access. The second result is false when T
// qualified by markers is not in the castable set; m is untouched either way.
func CastMut[T, S any](m Mut[S], markers ...Marker) (Mut[T], bool) {
	ref, ok := CastRef[T](m.Ref(), markers...)
	if !ok {
		return Mut[T]{}, false
	}
	return Mut[T]{hdr: ref.hdr, slot: ref.slot, owned: ref.owned}, true
}

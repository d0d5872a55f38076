package capcast

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

// cell is one owned allocation. Casting moves the cell between handles; it
// is never copied.
type cell struct {
	id  uuid.UUID
	val any
}

// Box uniquely owns a value.
type Box[T any] struct {
	hdr header
	c   *cell
}

// NewBox takes ownership of v through the Default registry.
func NewBox(v any) (*Box[Dyn], error) { return Default.NewBox(v) }

// NewBox takes ownership of v.
func (r *Registry) NewBox(v any) (*Box[Dyn], error) {
	h, err := r.header(v)
	if err != nil {
		return nil, err
	}
	return &Box[Dyn]{hdr: h, c: &cell{id: newID(), val: v}}, nil
}

// ID identifies the owned allocation. It survives casts.
func (b *Box[T]) ID() uuid.UUID {
	if b.c == nil {
		return uuid.Nil
	}
	return b.c.id
}

// Live reports whether the box still owns its value.
func (b *Box[T]) Live() bool { return b.c != nil }

// Concrete returns the concrete type of the owned value.
func (b *Box[T]) Concrete() reflect.Type { return b.hdr.concrete }

func (b *Box[T]) handleHeader() header {
	if b.c == nil {
		return header{}
	}
	return b.hdr
}

// Get returns the owned value.
func (b *Box[T]) Get() (T, error) {
	var zero T
	if b.c == nil {
		return zero, ErrConsumed
	}
	v, _ := as[T](b.c.val)
	return v, nil
}

// Into consumes the box and returns the value.
func (b *Box[T]) Into() (T, error) {
	v, err := b.Get()
	if err != nil {
		return v, err
	}
	b.c.val = nil
	b.c = nil
	return v, nil
}

// Ref borrows the value read-only.
func (b *Box[T]) Ref() Ref[T] {
	if b.c == nil {
		return Ref[T]{}
	}
	return Ref[T]{hdr: b.hdr, slot: &b.c.val, owned: true}
}

// Mut borrows the value with write access.
func (b *Box[T]) Mut() Mut[T] {
	if b.c == nil {
		return Mut[T]{}
	}
	return Mut[T]{hdr: b.hdr, slot: &b.c.val, owned: true}
}

// CastBox converts b into a box of T. On success b is consumed and the new
// box owns the same allocation. On failure b is left as it was and is also
// returned inside a *CastError.
func CastBox[T, S any](b *Box[S], markers ...Marker) (*Box[T], error) {
	if b.c == nil {
		return nil, fmt.Errorf("cast box: %w", ErrConsumed)
	}
	target := TargetOf[T](markers...)
	if !b.hdr.contains(target) {
		return nil, newCastError(b.hdr, target, b, ErrNotCastable)
	}
	if _, ok := as[T](b.c.val); !ok {
		return nil, newCastError(b.hdr, target, b, ErrNotCastable)
	}
	out := &Box[T]{hdr: b.hdr, c: b.c}
	b.c = nil
	return out, nil
}

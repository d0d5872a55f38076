package capcast

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

// rcCell is a shared allocation with a plain strong count. All handles that
// share it must stay on one goroutine.
type rcCell struct {
	id     uuid.UUID
	val    any
	strong int
}

// Rc is one share of a value with a non-atomic reference count.
type Rc[T any] struct {
	hdr header
	c   *rcCell
}

// NewRc wraps v in a new shared allocation through the Default registry.
func NewRc(v any) (*Rc[Dyn], error) { return Default.NewRc(v) }

// NewRc wraps v in a new shared allocation with a count of one.
func (r *Registry) NewRc(v any) (*Rc[Dyn], error) {
	h, err := r.header(v)
	if err != nil {
		return nil, err
	}
	return &Rc[Dyn]{hdr: h, c: &rcCell{id: newID(), val: v, strong: 1}}, nil
}

// ID identifies the shared allocation.
func (p *Rc[T]) ID() uuid.UUID {
	if p.c == nil {
		return uuid.Nil
	}
	return p.c.id
}

// Live reports whether this handle still holds a share.
func (p *Rc[T]) Live() bool { return p.c != nil }

// Count returns the number of live shares, or 0 for a dead handle.
func (p *Rc[T]) Count() int {
	if p.c == nil {
		return 0
	}
	return p.c.strong
}

// Concrete returns the concrete type of the shared value.
func (p *Rc[T]) Concrete() reflect.Type { return p.hdr.concrete }

func (p *Rc[T]) handleHeader() header {
	if p.c == nil {
		return header{}
	}
	return p.hdr
}

// Get returns the shared value.
func (p *Rc[T]) Get() (T, error) {
	var zero T
	if p.c == nil {
		return zero, ErrConsumed
	}
	v, _ := as[T](p.c.val)
	return v, nil
}

// Ref borrows the shared value read-only.
func (p *Rc[T]) Ref() Ref[T] {
	if p.c == nil {
		return Ref[T]{}
	}
	return Ref[T]{hdr: p.hdr, slot: &p.c.val, owned: true}
}

// Clone adds a share.
func (p *Rc[T]) Clone() (*Rc[T], error) {
	if p.c == nil {
		return nil, ErrConsumed
	}
	p.c.strong++
	return &Rc[T]{hdr: p.hdr, c: p.c}, nil
}

// Drop gives up this share. The value is released with the last share.
// Dropping a dead handle does nothing.
func (p *Rc[T]) Drop() {
	if p.c == nil {
		return
	}
	p.c.strong--
	if p.c.strong == 0 {
		p.c.val = nil
	}
	p.c = nil
}

// CastRc converts p into a share of T. On success p's share moves into the
// result and the count is unchanged. On failure p is left as it was and is
// also returned inside a *CastError.
func CastRc[T, S any](p *Rc[S], markers ...Marker) (*Rc[T], error) {
	if p.c == nil {
		return nil, fmt.Errorf("cast rc: %w", ErrConsumed)
	}
	target := TargetOf[T](markers...)
	if !p.hdr.contains(target) {
		return nil, newCastError(p.hdr, target, p, ErrNotCastable)
	}
	if _, ok := as[T](p.c.val); !ok {
		return nil, newCastError(p.hdr, target, p, ErrNotCastable)
	}
	out := &Rc[T]{hdr: p.hdr, c: p.c}
	p.c = nil
	return out, nil
}

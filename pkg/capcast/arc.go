package capcast

import (
	"fmt"
	"reflect"
	"sync/atomic"

	"github.com/google/uuid"
)

// arcCell is a shared allocation with an atomic strong count. val is written
// once, before the cell is published.
type arcCell struct {
	id     uuid.UUID
	val    any
	strong atomic.Int64
}

// Arc is one share of a value with an atomic reference count. Distinct Arc
// handles that share a cell may be used from different goroutines; a single
// handle belongs to one goroutine at a time.
type Arc[T any] struct {
	hdr header
	c   *arcCell
}

// NewArc wraps v in a new atomically shared allocation through the Default
// registry.
func NewArc(v any) (*Arc[Dyn], error) { return Default.NewArc(v) }

// NewArc wraps v in a new atomically shared allocation with a count of one.
// It does not require the type to be Shareable; CastArc does.
func (r *Registry) NewArc(v any) (*Arc[Dyn], error) {
	h, err := r.header(v)
	if err != nil {
		return nil, err
	}
	c := &arcCell{id: newID(), val: v}
	c.strong.Store(1)
	return &Arc[Dyn]{hdr: h, c: c}, nil
}

func (p *Arc[T]) ID() uuid.UUID {
	if p.c == nil {
		return uuid.Nil
	}
	return p.c.id
}

func (p *Arc[T]) Live() bool { return p.c != nil }

// Count returns the number of live shares, or 0 for a dead handle.
func (p *Arc[T]) Count() int64 {
	if p.c == nil {
		return 0
	}
	return p.c.strong.Load()
}

func (p *Arc[T]) Concrete() reflect.Type { return p.hdr.concrete }

func (p *Arc[T]) handleHeader() header {
	if p.c == nil {
		return header{}
	}
	return p.hdr
}

func (p *Arc[T]) Get() (T, error) {
	var zero T
	if p.c == nil {
		return zero, ErrConsumed
	}
	v, _ := as[T](p.c.val)
	return v, nil
}

// Ref borrows the shared value read-only.
func (p *Arc[T]) Ref() Ref[T] {
	if p.c == nil {
		return Ref[T]{}
	}
	return Ref[T]{hdr: p.hdr, slot: &p.c.val, owned: true}
}

// Clone adds a share.
func (p *Arc[T]) Clone() (*Arc[T], error) {
	if p.c == nil {
		return nil, ErrConsumed
	}
	p.c.strong.Add(1)
	return &Arc[T]{hdr: p.hdr, c: p.c}, nil
}

// Drop gives up this share. Dropping a dead handle does nothing.
func (p *Arc[T]) Drop() {
	if p.c == nil {
		return
	}
	p.c.strong.Add(-1)
	p.c = nil
}

// CastArc converts p into a share of T. Besides membership of T in the
// castable set, the type must carry generated Shareable+Transferable
// evidence; a type declared with an empty marker list reaches no target at
// all, not even its own concrete type. On failure p is left as it was and is
// also returned inside a *CastError.
func CastArc[T, S any](p *Arc[S], markers ...Marker) (*Arc[T], error) {
	if p.c == nil {
		return nil, fmt.Errorf("cast arc: %w", ErrConsumed)
	}
	target := TargetOf[T](markers...)
	if !p.hdr.table.AtomicEligible() {
		return nil, newCastError(p.hdr, target, p, ErrAtomicGate)
	}
	if !p.hdr.contains(target) {
		return nil, newCastError(p.hdr, target, p, ErrNotCastable)
	}
	if _, ok := as[T](p.c.val); !ok {
		return nil, newCastError(p.hdr, target, p, ErrNotCastable)
	}
	out := &Arc[T]{hdr: p.hdr, c: p.c}
	p.c = nil
	return out, nil
}

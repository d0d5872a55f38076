package capcast

import (
	"errors"
	"fmt"
	"reflect"
)

// CastError is returned by a refused owning or shared cast. Handle is the
// input handle, unchanged; the caller keeps ownership through it.
type CastError[H any] struct {
	From   reflect.Type
	To     Target
	Handle H
	err    error
}

func newCastError[H any](h header, to Target, handle H, err error) *CastError[H] {
	return &CastError[H]{From: h.concrete, To: to, Handle: handle, err: err}
}

func (e *CastError[H]) Error() string {
	return fmt.Sprintf("cannot cast %v to %v: %v", e.From, e.To, e.err)
}

func (e *CastError[H]) Unwrap() error { return e.err }

// Recover extracts the handle carried by a *CastError[H].
func Recover[H any](err error) (H, bool) {
	var ce *CastError[H]
	if errors.As(err, &ce) {
		return ce.Handle, true
	}
	var zero H
	return zero, false
}

package capcast

import (
	"errors"

	"github.com/mesh-intelligence/capcast/pkg/capset"
)

// Declaration errors.
var (
	ErrAlreadyDeclared = errors.New("type already declared")
	ErrNotConcrete     = errors.New("declared type must not be an interface")
	ErrNotInterface    = errors.New("base capability must be an interface type")
	ErrNotImplemented  = capset.ErrNotImplemented
	ErrReservedBase    = capset.ErrReservedBase
)

// Handle errors.
var (
	ErrNotDeclared     = errors.New("type not declared")
	ErrConsumed        = errors.New("handle already consumed or dropped")
	ErrConcreteChanged = errors.New("replacement value has a different concrete type")
	ErrNotOwned        = errors.New("view is not backed by an owner")
)

// Cast errors. CastError unwraps to one of these.
var (
	ErrNotCastable = errors.New("target not in castable set")
	ErrAtomicGate  = errors.New("type carries no Shareable+Transferable evidence for atomic sharing")
)

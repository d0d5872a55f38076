package capset

import "errors"

// Declaration errors. Compute returns them wrapped with the offending name.
var (
	ErrNotImplemented = errors.New("declared base capability is not implemented")
	ErrReservedBase   = errors.New("base capability collides with a built-in interface")
	ErrUnknownMarker  = errors.New("unknown marker capability")
)

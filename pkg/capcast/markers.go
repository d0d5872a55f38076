package capcast

import (
	"reflect"

	"github.com/mesh-intelligence/capcast/pkg/capset"
)

// Marker and MarkerSet are re-exported so callers need a single import.
type (
	Marker    = capset.Marker
	MarkerSet = capset.MarkerSet
)

// Marker vocabulary.
const (
	Shareable    = capset.Shareable
	Transferable = capset.Transferable
	Movable      = capset.Movable
)

// A concrete type possesses a marker when it implements the matching marker
// interface. The methods are never called.
type (
	ShareableMarker interface {
		MarkShareable()
	}
	TransferableMarker interface {
		MarkTransferable()
	}
	MovableMarker interface {
		MarkMovable()
	}
)

// GoroutineSafe can be embedded to give a type both the Shareable and the
// Transferable marker.
type GoroutineSafe struct{}

func (GoroutineSafe) MarkShareable()    {}
func (GoroutineSafe) MarkTransferable() {}

var markerInterfaces = [...]struct {
	marker Marker
	iface  reflect.Type
}{
	{Shareable, reflect.TypeFor[ShareableMarker]()},
	{Transferable, reflect.TypeFor[TransferableMarker]()},
	{Movable, reflect.TypeFor[MovableMarker]()},
}

// possessed reads the markers a concrete type actually has.
func possessed(t reflect.Type) MarkerSet {
	var s MarkerSet
	for _, mi := range markerInterfaces {
		if t.Implements(mi.iface) {
			s = s.With(mi.marker)
		}
	}
	return s
}

package capcast

import (
	"reflect"

	"github.com/mesh-intelligence/capcast/pkg/capset"
)

// Dyn is the engine's own interface. Every declared value can be viewed as a
// Dyn, and freshly built handles carry it as their element type.
type Dyn interface{}

var (
	universalType = reflect.TypeFor[any]()
	selfType      = reflect.TypeFor[Dyn]()
)

// Target names something a value may be cast to: an interface qualified by a
// marker subset, or a concrete type with no markers.
type Target struct {
	Type    reflect.Type
	Markers MarkerSet
}

// TargetOf returns the target for T qualified by markers.
func TargetOf[T any](markers ...Marker) Target {
	return Target{Type: reflect.TypeFor[T](), Markers: capset.SetOf(markers...)}
}

// IsInterface reports whether the target names an interface.
func (t Target) IsInterface() bool {
	return t.Type != nil && t.Type.Kind() == reflect.Interface
}

// String renders "io.Reader + Shareable", "any" or "*pkg.Widget".
func (t Target) String() string {
	if t.Type == nil {
		return "<nil>"
	}
	name := t.Type.String()
	if t.Type == universalType {
		name = "any"
	}
	if t.Markers == 0 {
		return name
	}
	return name + " + " + t.Markers.String()
}

func (t Target) entry() capset.Entry[reflect.Type] {
	return capset.Entry[reflect.Type]{Type: t.Type, Markers: t.Markers, Concrete: !t.IsInterface()}
}

func targetFromEntry(e capset.Entry[reflect.Type]) Target {
	return Target{Type: e.Type, Markers: e.Markers}
}

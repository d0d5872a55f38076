package capset

import (
	"fmt"
	"math/bits"
	"strings"
)

// Marker is an orthogonal boolean property a concrete type either has or
// lacks. Markers are not queryable on their own; they qualify an interface.
type Marker uint8

// Marker vocabulary. The value is the bit index inside a MarkerSet.
const (
	Shareable    Marker = iota // safe to share between goroutines
	Transferable               // safe to hand over to another goroutine
	Movable                    // not pinned to its address

	numMarkers
)

var markerNames = [numMarkers]string{
	Shareable:    "Shareable",
	Transferable: "Transferable",
	Movable:      "Movable",
}

// markerAliases maps accepted spellings to markers. The second column keeps
// the short names people reach for first.
var markerAliases = map[string]Marker{
	"shareable":    Shareable,
	"sync":         Shareable,
	"transferable": Transferable,
	"send":         Transferable,
	"movable":      Movable,
	"unpin":        Movable,
}

// AllMarkers lists the vocabulary in bit order.
var AllMarkers = []Marker{Shareable, Transferable, Movable}

// String returns the marker name.
func (m Marker) String() string {
	if m < numMarkers {
		return markerNames[m]
	}
	return fmt.Sprintf("Marker(%d)", uint8(m))
}

// Valid reports whether m belongs to the vocabulary.
func (m Marker) Valid() bool {
	return m < numMarkers
}

// ParseMarker resolves a marker name, case-insensitively.
func ParseMarker(name string) (Marker, error) {
	m, ok := markerAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownMarker, name)
	}
	return m, nil
}

// MarkerSet is a bit mask over the marker vocabulary.
type MarkerSet uint8

// NoMarkers is the empty set.
const NoMarkers MarkerSet = 0

// DefaultMarkers is used when a declaration omits its marker list.
const DefaultMarkers = MarkerSet(1<<Shareable | 1<<Transferable)

// SetOf builds a set from individual markers. Invalid markers are ignored.
func SetOf(markers ...Marker) MarkerSet {
	var s MarkerSet
	for _, m := range markers {
		s = s.With(m)
	}
	return s
}

// Has reports whether m is in the set.
func (s MarkerSet) Has(m Marker) bool {
	return m.Valid() && s&(1<<m) != 0
}

// With returns s with m added.
func (s MarkerSet) With(m Marker) MarkerSet {
	if !m.Valid() {
		return s
	}
	return s | 1<<m
}

// Union returns s ∪ o.
func (s MarkerSet) Union(o MarkerSet) MarkerSet { return s | o }

// Intersect returns s ∩ o.
func (s MarkerSet) Intersect(o MarkerSet) MarkerSet { return s & o }

// SubsetOf reports whether every marker of s is in o.
func (s MarkerSet) SubsetOf(o MarkerSet) bool { return s&^o == 0 }

// Len returns the number of markers in the set.
func (s MarkerSet) Len() int { return bits.OnesCount8(uint8(s)) }

// Markers returns the members in bit order.
func (s MarkerSet) Markers() []Marker {
	out := make([]Marker, 0, s.Len())
	for _, m := range AllMarkers {
		if s.Has(m) {
			out = append(out, m)
		}
	}
	return out
}

// Subsets enumerates the power set of s in ascending mask order. The empty
// set comes first and s itself last.
func (s MarkerSet) Subsets() []MarkerSet {
	out := make([]MarkerSet, 0, 1<<s.Len())
	// Walk sub = (sub - s) & s upwards from zero; classic submask iteration.
	sub := MarkerSet(0)
	for {
		out = append(out, sub)
		if sub == s {
			return out
		}
		sub = (sub - s) & s
	}
}

// String renders the set as "Shareable + Transferable", or "" when empty.
func (s MarkerSet) String() string {
	ms := s.Markers()
	parts := make([]string, len(ms))
	for i, m := range ms {
		parts[i] = m.String()
	}
	return strings.Join(parts, " + ")
}

// MarkerDecl is the marker list of a declaration. The zero value means the
// list was omitted and resolves to DefaultMarkers; DeclareMarkers with no
// arguments is an explicit empty list.
type MarkerDecl struct {
	explicit bool
	set      MarkerSet
}

// DeclareMarkers returns an explicit marker list.
func DeclareMarkers(markers ...Marker) MarkerDecl {
	return MarkerDecl{explicit: true, set: SetOf(markers...)}
}

// Explicit reports whether the list was given rather than omitted.
func (d MarkerDecl) Explicit() bool { return d.explicit }

// Resolve applies the defaulting rule.
func (d MarkerDecl) Resolve() MarkerSet {
	if !d.explicit {
		return DefaultMarkers
	}
	return d.set
}

package capset

import "fmt"

// Entry is one element of a castable set: an interface qualified by a marker
// subset, or the concrete type itself (Concrete set, Markers empty).
type Entry[K comparable] struct {
	Type     K
	Markers  MarkerSet
	Concrete bool
}

// Declaration is what a concrete type states about itself.
type Declaration[K comparable] struct {
	Concrete  K
	Universal K
	Self      K
	Bases     []K
	Markers   MarkerDecl
}

// Facts is ground truth about the concrete type, supplied by whoever owns the
// type system. Compute intersects against it and never overrides it.
type Facts[K comparable] struct {
	// Implements reports whether the concrete type implements an interface.
	// A nil func means no base capability is implemented.
	Implements func(K) bool
	// Possessed holds the markers the concrete type actually has.
	Possessed MarkerSet
}

// Table is the castable set of one concrete type. It is immutable and safe
// for concurrent use.
type Table[K comparable] struct {
	concrete   K
	universal  K
	interfaces []K
	effective  MarkerSet
	dropped    MarkerSet
	entries    []Entry[K]
	index      map[Entry[K]]struct{}
}

// Compute derives the castable set for a declaration.
//
// Every subset of (declared markers ∩ possessed markers) is paired with every
// interface in {Universal, Self} ∪ Bases, and the concrete type is added on
// its own. A base the type does not implement fails with ErrNotImplemented.
func Compute[K comparable](decl Declaration[K], facts Facts[K]) (*Table[K], error) {
	interfaces := []K{decl.Universal, decl.Self}
	seen := map[K]bool{decl.Universal: true, decl.Self: true}
	for _, base := range decl.Bases {
		if base == decl.Concrete || base == decl.Universal || base == decl.Self {
			return nil, fmt.Errorf("%w: %v", ErrReservedBase, base)
		}
		if seen[base] {
			continue
		}
		if facts.Implements == nil || !facts.Implements(base) {
			return nil, fmt.Errorf("%w: %v does not implement %v", ErrNotImplemented, decl.Concrete, base)
		}
		seen[base] = true
		interfaces = append(interfaces, base)
	}

	declared := decl.Markers.Resolve()
	effective := declared.Intersect(facts.Possessed)
	subsets := effective.Subsets()

	t := &Table[K]{
		concrete:   decl.Concrete,
		universal:  decl.Universal,
		interfaces: interfaces,
		effective:  effective,
		dropped:    declared &^ facts.Possessed,
		entries:    make([]Entry[K], 0, 1+len(interfaces)*len(subsets)),
	}
	t.entries = append(t.entries, Entry[K]{Type: decl.Concrete, Concrete: true})
	for _, iface := range interfaces {
		for _, m := range subsets {
			t.entries = append(t.entries, Entry[K]{Type: iface, Markers: m})
		}
	}
	t.index = make(map[Entry[K]]struct{}, len(t.entries))
	for _, e := range t.entries {
		t.index[e] = struct{}{}
	}
	return t, nil
}

// Concrete returns the identity of the concrete type.
func (t *Table[K]) Concrete() K { return t.concrete }

// Interfaces returns Universal, Self and the accepted bases, in that order.
func (t *Table[K]) Interfaces() []K {
	out := make([]K, len(t.interfaces))
	copy(out, t.interfaces)
	return out
}

// Effective returns the markers that took part in the power set.
func (t *Table[K]) Effective() MarkerSet { return t.effective }

// Dropped returns declared markers the type does not possess.
func (t *Table[K]) Dropped() MarkerSet { return t.dropped }

// Len returns the number of entries.
func (t *Table[K]) Len() int { return len(t.entries) }

// Entries returns a copy of the entries: the concrete entry first, then each
// interface with its marker subsets in ascending mask order.
func (t *Table[K]) Entries() []Entry[K] {
	out := make([]Entry[K], len(t.entries))
	copy(out, t.entries)
	return out
}

// Contains reports whether e is in the set.
func (t *Table[K]) Contains(e Entry[K]) bool {
	_, ok := t.index[e]
	return ok
}

// Has is Contains for an interface target.
func (t *Table[K]) Has(iface K, markers MarkerSet) bool {
	return t.Contains(Entry[K]{Type: iface, Markers: markers})
}

// HasConcrete reports whether k names the concrete type.
func (t *Table[K]) HasConcrete(k K) bool {
	return t.Contains(Entry[K]{Type: k, Concrete: true})
}

// AtomicEligible reports whether the table carries generated evidence that
// the type is both Shareable and Transferable. Atomic shared handles accept
// no target at all without it.
func (t *Table[K]) AtomicEligible() bool {
	return t.Has(t.universal, SetOf(Shareable, Transferable))
}

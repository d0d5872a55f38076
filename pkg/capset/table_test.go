package capset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func implements(names ...string) func(string) bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(k string) bool { return set[k] }
}

func decl(bases []string, markers MarkerDecl) Declaration[string] {
	return Declaration[string]{
		Concrete:  "Struct",
		Universal: "any",
		Self:      "Dyn",
		Bases:     bases,
		Markers:   markers,
	}
}

func iface(name string, markers ...Marker) Entry[string] {
	return Entry[string]{Type: name, Markers: SetOf(markers...)}
}

func concrete(name string) Entry[string] {
	return Entry[string]{Type: name, Concrete: true}
}

func TestComputeDefaultDeclaration(t *testing.T) {
	tbl, err := Compute(decl(nil, MarkerDecl{}), Facts[string]{Possessed: SetOf(Shareable, Transferable, Movable)})
	require.NoError(t, err)

	want := []Entry[string]{
		concrete("Struct"),
		iface("any"), iface("any", Shareable), iface("any", Transferable), iface("any", Shareable, Transferable),
		iface("Dyn"), iface("Dyn", Shareable), iface("Dyn", Transferable), iface("Dyn", Shareable, Transferable),
	}
	assert.ElementsMatch(t, want, tbl.Entries())
	assert.Equal(t, 9, tbl.Len())
	assert.True(t, tbl.AtomicEligible())
	assert.False(t, tbl.Has("any", SetOf(Movable)), "Movable is possessed but not declared")
}

func TestComputeExplicitlyEmpty(t *testing.T) {
	tbl, err := Compute(decl([]string{}, DeclareMarkers()), Facts[string]{Possessed: DefaultMarkers})
	require.NoError(t, err)

	assert.ElementsMatch(t, []Entry[string]{concrete("Struct"), iface("any"), iface("Dyn")}, tbl.Entries())
	assert.False(t, tbl.AtomicEligible())
	assert.Equal(t, NoMarkers, tbl.Effective())
}

func TestComputeCustomBaseAndMarker(t *testing.T) {
	tbl, err := Compute(
		decl([]string{"Trait"}, DeclareMarkers(Movable)),
		Facts[string]{Implements: implements("Trait"), Possessed: SetOf(Shareable, Transferable, Movable)},
	)
	require.NoError(t, err)

	want := []Entry[string]{
		concrete("Struct"),
		iface("any"), iface("any", Movable),
		iface("Dyn"), iface("Dyn", Movable),
		iface("Trait"), iface("Trait", Movable),
	}
	assert.ElementsMatch(t, want, tbl.Entries())
	assert.False(t, tbl.Has("any", SetOf(Transferable)))
	assert.False(t, tbl.Has("Trait", SetOf(Shareable)))
	assert.False(t, tbl.AtomicEligible())
	assert.Equal(t, []string{"any", "Dyn", "Trait"}, tbl.Interfaces())
}

func TestComputeIntersectsPossessedMarkers(t *testing.T) {
	tbl, err := Compute(decl(nil, MarkerDecl{}), Facts[string]{Possessed: SetOf(Transferable)})
	require.NoError(t, err)

	assert.Equal(t, 5, tbl.Len())
	assert.True(t, tbl.Has("any", SetOf(Transferable)))
	assert.False(t, tbl.Has("any", SetOf(Shareable)))
	assert.Equal(t, SetOf(Shareable), tbl.Dropped())
	assert.False(t, tbl.AtomicEligible())
}

func TestComputeRejectsUnimplementedBase(t *testing.T) {
	_, err := Compute(decl([]string{"Trait", "Other"}, MarkerDecl{}), Facts[string]{Implements: implements("Trait")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotImplemented))
	assert.Contains(t, err.Error(), "Other")

	_, err = Compute(decl([]string{"Trait"}, MarkerDecl{}), Facts[string]{})
	assert.ErrorIs(t, err, ErrNotImplemented)
}

func TestComputeRejectsReservedBase(t *testing.T) {
	for _, base := range []string{"Struct", "any", "Dyn"} {
		t.Run(base, func(t *testing.T) {
			_, err := Compute(decl([]string{base}, MarkerDecl{}), Facts[string]{Implements: implements(base)})
			assert.ErrorIs(t, err, ErrReservedBase)
		})
	}
}

func TestComputeCollapsesDuplicateBases(t *testing.T) {
	tbl, err := Compute(
		decl([]string{"Trait", "Trait"}, DeclareMarkers()),
		Facts[string]{Implements: implements("Trait")},
	)
	require.NoError(t, err)
	assert.Equal(t, 4, tbl.Len())
}

func TestComputeInvariants(t *testing.T) {
	bases := [][]string{nil, {"A"}, {"A", "B"}}
	facts := Facts[string]{Implements: implements("A", "B")}
	for _, b := range bases {
		for possessed := MarkerSet(0); possessed < 1<<numMarkers; possessed++ {
			for declared := MarkerSet(0); declared < 1<<numMarkers; declared++ {
				facts.Possessed = possessed
				tbl, err := Compute(decl(b, DeclareMarkers(declared.Markers()...)), facts)
				require.NoError(t, err)

				assert.True(t, tbl.Contains(concrete("Struct")))
				assert.True(t, tbl.Has("any", NoMarkers))
				assert.True(t, tbl.Has("Dyn", NoMarkers))
				assert.Equal(t, 1+(2+len(b))*(1<<declared.Intersect(possessed).Len()), tbl.Len())

				for _, e := range tbl.Entries() {
					for _, sub := range e.Markers.Subsets() {
						assert.True(t, tbl.Contains(Entry[string]{Type: e.Type, Markers: sub, Concrete: e.Concrete}),
							"downward closure broken for %v%v", e.Type, sub)
					}
				}
			}
		}
	}
}

func TestEntriesReturnsCopy(t *testing.T) {
	tbl, err := Compute(decl(nil, MarkerDecl{}), Facts[string]{Possessed: DefaultMarkers})
	require.NoError(t, err)

	entries := tbl.Entries()
	entries[0] = iface("mutated")
	assert.True(t, tbl.HasConcrete("Struct"))
	assert.False(t, tbl.Contains(iface("mutated")))
}

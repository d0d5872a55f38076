package capset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubsets(t *testing.T) {
	tests := []struct {
		name string
		set  MarkerSet
		want []MarkerSet
	}{
		{"empty", NoMarkers, []MarkerSet{NoMarkers}},
		{"single", SetOf(Movable), []MarkerSet{NoMarkers, SetOf(Movable)}},
		{"default", DefaultMarkers, []MarkerSet{
			NoMarkers, SetOf(Shareable), SetOf(Transferable), SetOf(Shareable, Transferable),
		}},
		{"sparse", SetOf(Shareable, Movable), []MarkerSet{
			NoMarkers, SetOf(Shareable), SetOf(Movable), SetOf(Shareable, Movable),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.set.Subsets())
		})
	}

	all := SetOf(AllMarkers...)
	assert.Len(t, all.Subsets(), 1<<len(AllMarkers))
}

func TestMarkerSetOps(t *testing.T) {
	s := SetOf(Shareable, Transferable)
	assert.True(t, s.Has(Shareable))
	assert.False(t, s.Has(Movable))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []Marker{Shareable, Transferable}, s.Markers())
	assert.True(t, SetOf(Shareable).SubsetOf(s))
	assert.False(t, SetOf(Movable).SubsetOf(s))
	assert.Equal(t, SetOf(Shareable), s.Intersect(SetOf(Shareable, Movable)))
	assert.Equal(t, SetOf(AllMarkers...), s.Union(SetOf(Movable)))
	assert.Equal(t, s, s.With(Marker(42)), "invalid markers are ignored")
	assert.Equal(t, "Shareable + Transferable", s.String())
	assert.Equal(t, "", NoMarkers.String())
}

func TestParseMarker(t *testing.T) {
	tests := []struct {
		in   string
		want Marker
	}{
		{"shareable", Shareable},
		{"Sync", Shareable},
		{"transferable", Transferable},
		{" send ", Transferable},
		{"MOVABLE", Movable},
		{"unpin", Movable},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMarker(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseMarker("pinned")
	assert.ErrorIs(t, err, ErrUnknownMarker)
}

func TestMarkerDeclDefaulting(t *testing.T) {
	var omitted MarkerDecl
	assert.False(t, omitted.Explicit())
	assert.Equal(t, DefaultMarkers, omitted.Resolve())

	empty := DeclareMarkers()
	assert.True(t, empty.Explicit())
	assert.Equal(t, NoMarkers, empty.Resolve())

	assert.Equal(t, SetOf(Movable), DeclareMarkers(Movable).Resolve())
}

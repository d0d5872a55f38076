package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/capcast/internal/manifest"
	"github.com/mesh-intelligence/capcast/pkg/capset"
)

func computedSets(t *testing.T) []manifest.Computed {
	t.Helper()
	decls := []manifest.TypeDecl{
		{Name: "Default", Possesses: capset.DefaultMarkers},
		{Name: "Minimal", Markers: capset.DeclareMarkers(), Possesses: capset.DefaultMarkers},
		{
			Name:       "Custom",
			Bases:      []string{"Trait"},
			Markers:    capset.DeclareMarkers(capset.Movable),
			Implements: []string{"Trait"},
			Possesses:  capset.SetOf(capset.Shareable, capset.Transferable, capset.Movable),
		},
	}
	out := make([]manifest.Computed, 0, len(decls))
	for _, d := range decls {
		tbl, err := d.Compute()
		require.NoError(t, err)
		out = append(out, manifest.Computed{Decl: d, Table: tbl})
	}
	return out
}

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesDatabase(t *testing.T) {
	s := openStore(t)
	_, err := os.Stat(filepath.Join(s.Dir(), DatabaseName))
	assert.NoError(t, err)

	snaps, err := s.Snapshots()
	require.NoError(t, err)
	assert.Empty(t, snaps)
	_, err = s.Latest()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveAndEntries(t *testing.T) {
	s := openStore(t)
	snap, err := s.Save("capcast.yaml", computedSets(t))
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Types)
	assert.Equal(t, 19, snap.Entries)

	records, err := s.Entries(snap.ID)
	require.NoError(t, err)
	require.Len(t, records, 19)

	byType := map[string][]Record{}
	for _, r := range records {
		assert.Equal(t, snap.ID, r.SnapshotID)
		byType[r.Type] = append(byType[r.Type], r)
	}
	assert.Len(t, byType["Default"], 9)
	assert.Len(t, byType["Minimal"], 3)
	assert.Len(t, byType["Custom"], 7)

	first := byType["Custom"][0]
	assert.True(t, first.Concrete)
	assert.Equal(t, "Custom", first.Interface)
	assert.Empty(t, first.Markers)

	var movableTrait bool
	for _, r := range byType["Custom"] {
		if r.Interface == "Trait" && r.MarkerSet() == capset.SetOf(capset.Movable) {
			movableTrait = true
		}
	}
	assert.True(t, movableTrait)
}

func TestSnapshotsNewestFirst(t *testing.T) {
	s := openStore(t)
	sets := computedSets(t)
	older, err := s.Save("a.yaml", sets)
	require.NoError(t, err)
	newer, err := s.Save("b.yaml", sets[:1])
	require.NoError(t, err)

	snaps, err := s.Snapshots()
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, newer.ID, snaps[0].ID)
	assert.Equal(t, older.ID, snaps[1].ID)
	assert.Equal(t, 9, snaps[0].Entries)

	latest, err := s.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, latest.ID)
	latest, err = s.Resolve(LatestRef)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, latest.ID)
}

func TestResolve(t *testing.T) {
	s := openStore(t)
	snap, err := s.Save("a.yaml", computedSets(t))
	require.NoError(t, err)

	got, err := s.Resolve(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, got.ID)
	assert.Equal(t, "a.yaml", got.Manifest)

	got, err = s.Resolve(snap.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, snap.ID, got.ID)

	_, err = s.Resolve("zzzz")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Entries("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	snap, err := s.Save("a.yaml", computedSets(t))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Latest()
	require.NoError(t, err)
	assert.Equal(t, snap.ID, got.ID)
	assert.True(t, snap.CreatedAt.Equal(got.CreatedAt))
}

func TestClosedStore(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "close is idempotent")

	_, err := s.Save("a.yaml", computedSets(t))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Snapshots()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Entries("x")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSaveNothing(t *testing.T) {
	s := openStore(t)
	_, err := s.Save("a.yaml", nil)
	assert.ErrorIs(t, err, ErrNoSets)
}

func TestExportJSONL(t *testing.T) {
	s := openStore(t)
	snap, err := s.Save("a.yaml", computedSets(t))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "entries.jsonl")
	n, err := s.ExportJSONL(snap.ID, path)
	require.NoError(t, err)
	assert.Equal(t, 19, n)

	records, err := ReadJSONL(path)
	require.NoError(t, err)
	want, err := s.Entries(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, want, records)

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".jsonl-*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestReadJSONLSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entries.jsonl")
	content := `{"snapshot_id":"s","type":"A","interface":"any","markers":[],"concrete":false}

not json
{"snapshot_id":"s","type":"A","interface":"A","markers":["Movable"],"concrete":true}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	records, err := ReadJSONL(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "any", records[0].Interface)
	assert.Equal(t, capset.SetOf(capset.Movable), records[1].MarkerSet())

	_, err = ReadJSONL(filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.Error(t, err)
}

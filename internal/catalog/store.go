// Package catalog persists computed castable sets so that successive
// manifest revisions can be listed, compared and exported.
//
// SQLite is the query engine. Exports are JSONL files written atomically,
// one castable entry per line.
package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/capcast/internal/manifest"
	"github.com/mesh-intelligence/capcast/pkg/capset"
)

// DatabaseName is the file created inside the data directory.
const DatabaseName = "catalog.db"

// LatestRef selects the newest snapshot in Resolve.
const LatestRef = "latest"

// Fixed-width so that lexical order matches chronological order.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Catalog errors.
var (
	ErrClosed    = errors.New("catalog is closed")
	ErrNotFound  = errors.New("snapshot not found")
	ErrAmbiguous = errors.New("snapshot prefix is ambiguous")
	ErrNoSets    = errors.New("nothing to snapshot")
)

// Snapshot describes one saved manifest evaluation.
type Snapshot struct {
	ID        string    `json:"snapshot_id"`
	Manifest  string    `json:"manifest"`
	Types     int       `json:"types"`
	Entries   int       `json:"entries"`
	CreatedAt time.Time `json:"created_at"`
}

// Record is one castable entry of one type in a snapshot.
type Record struct {
	SnapshotID string   `json:"snapshot_id"`
	Type       string   `json:"type"`
	Interface  string   `json:"interface"`
	Markers    []string `json:"markers"`
	Concrete   bool     `json:"concrete"`
}

// MarkerSet parses the record's marker names. Unknown names are ignored.
func (r Record) MarkerSet() capset.MarkerSet {
	var s capset.MarkerSet
	for _, name := range r.Markers {
		if m, err := capset.ParseMarker(name); err == nil {
			s = s.With(m)
		}
	}
	return s
}

// Store is a catalog opened on a data directory.
type Store struct {
	mu  sync.RWMutex
	db  *sql.DB
	dir string
}

// Open creates the data directory if needed and opens (or creates) the
// catalog database inside it.
func Open(dataDir string) (*Store, error) {
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, DatabaseName))
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	// One connection keeps the pragma and writes on the same handle.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &Store{db: db, dir: dataDir}, nil
}

// Dir returns the data directory of the store.
func (s *Store) Dir() string { return s.dir }

// Close releases the database. Close is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Save records the castable sets of one manifest evaluation as a new
// snapshot.
func (s *Store) Save(manifestPath string, sets []manifest.Computed) (Snapshot, error) {
	if len(sets) == 0 {
		return Snapshot{}, ErrNoSets
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return Snapshot{}, ErrClosed
	}

	snap := Snapshot{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Manifest:  manifestPath,
		Types:     len(sets),
		CreatedAt: time.Now().UTC(),
	}
	for _, c := range sets {
		snap.Entries += c.Table.Len()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return Snapshot{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO snapshots (snapshot_id, manifest, type_count, entry_count, created_at) VALUES (?, ?, ?, ?, ?)`,
		snap.ID, snap.Manifest, snap.Types, snap.Entries, snap.CreatedAt.Format(timeFormat),
	); err != nil {
		return Snapshot{}, fmt.Errorf("insert snapshot: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO castable_entries (snapshot_id, type_name, ordinal, interface, markers, concrete) VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return Snapshot{}, fmt.Errorf("prepare entries: %w", err)
	}
	defer stmt.Close()

	for _, c := range sets {
		for i, e := range c.Table.Entries() {
			if _, err := stmt.Exec(snap.ID, c.Decl.Name, i, e.Type, int(e.Markers), e.Concrete); err != nil {
				return Snapshot{}, fmt.Errorf("insert entry %s/%s: %w", c.Decl.Name, e.Type, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return Snapshot{}, fmt.Errorf("commit: %w", err)
	}
	return snap, nil
}

// Snapshots lists all snapshots, newest first.
func (s *Store) Snapshots() ([]Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}

	rows, err := s.db.Query(
		`SELECT snapshot_id, manifest, type_count, entry_count, created_at FROM snapshots ORDER BY created_at DESC, snapshot_id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Latest returns the newest snapshot.
func (s *Store) Latest() (Snapshot, error) {
	snaps, err := s.Snapshots()
	if err != nil {
		return Snapshot{}, err
	}
	if len(snaps) == 0 {
		return Snapshot{}, ErrNotFound
	}
	return snaps[0], nil
}

// Resolve finds a snapshot by full id, unique id prefix, or LatestRef. An
// empty ref means LatestRef.
func (s *Store) Resolve(ref string) (Snapshot, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref == LatestRef {
		return s.Latest()
	}
	snaps, err := s.Snapshots()
	if err != nil {
		return Snapshot{}, err
	}
	var found []Snapshot
	for _, snap := range snaps {
		if snap.ID == ref {
			return snap, nil
		}
		if strings.HasPrefix(snap.ID, ref) {
			found = append(found, snap)
		}
	}
	switch len(found) {
	case 0:
		return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
	case 1:
		return found[0], nil
	default:
		return Snapshot{}, fmt.Errorf("%w: %s matches %d snapshots", ErrAmbiguous, ref, len(found))
	}
}

// Entries returns the records of a snapshot ordered by type name, then by
// table order within each type.
func (s *Store) Entries(snapshotID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}

	var exists int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM snapshots WHERE snapshot_id = ?`, snapshotID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, snapshotID)
	}

	rows, err := s.db.Query(
		`SELECT type_name, interface, markers, concrete FROM castable_entries WHERE snapshot_id = ? ORDER BY type_name, ordinal`,
		snapshotID,
	)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec      Record
			markers  int
			concrete bool
		)
		if err := rows.Scan(&rec.Type, &rec.Interface, &markers, &concrete); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		rec.SnapshotID = snapshotID
		rec.Concrete = concrete
		rec.Markers = markerNames(capset.MarkerSet(markers))
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ExportJSONL writes the records of a snapshot to path and returns how many
// were written.
func (s *Store) ExportJSONL(snapshotID, path string) (int, error) {
	records, err := s.Entries(snapshotID)
	if err != nil {
		return 0, err
	}
	if err := writeJSONL(path, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (Snapshot, error) {
	var (
		snap    Snapshot
		created string
	)
	if err := row.Scan(&snap.ID, &snap.Manifest, &snap.Types, &snap.Entries, &created); err != nil {
		return Snapshot{}, fmt.Errorf("scan snapshot: %w", err)
	}
	t, err := time.Parse(timeFormat, created)
	if err != nil {
		return Snapshot{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	snap.CreatedAt = t
	return snap, nil
}

func markerNames(s capset.MarkerSet) []string {
	names := make([]string, 0, s.Len())
	for _, m := range s.Markers() {
		names = append(names, m.String())
	}
	return names
}

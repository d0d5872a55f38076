// Package manifest reads symbolic capability declarations from a YAML file
// and computes their castable sets without any Go type behind them.
//
// A manifest lists concrete types by name together with the ground truth the
// runtime engine would get from reflection: which interfaces the type
// implements and which markers it possesses.
//
//	types:
//	  - name: Struct
//	    bases: [Trait]
//	    markers: [movable]      # omitted: shareable+transferable; []: none
//	    implements: [Trait]
//	    possesses: [shareable, transferable, movable]
package manifest

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/capcast/pkg/capset"
)

// Names of the built-in interfaces in symbolic tables.
const (
	UniversalName = "any"
	SelfName      = "Dyn"
)

// Manifest loading errors.
var (
	ErrNoTypes       = errors.New("manifest declares no types")
	ErrInvalidEntry  = errors.New("invalid manifest entry")
	ErrDuplicateType = errors.New("type declared twice")
	ErrTypeNotFound  = errors.New("type not in manifest")
)

// TypeDecl is one symbolic declaration.
type TypeDecl struct {
	Name       string
	Bases      []string
	Markers    capset.MarkerDecl
	Implements []string
	Possesses  capset.MarkerSet
}

// Compute derives the castable set of the declaration.
func (d TypeDecl) Compute() (*capset.Table[string], error) {
	implemented := make(map[string]bool, len(d.Implements))
	for _, name := range d.Implements {
		implemented[name] = true
	}
	tbl, err := capset.Compute(
		capset.Declaration[string]{
			Concrete:  d.Name,
			Universal: UniversalName,
			Self:      SelfName,
			Bases:     d.Bases,
			Markers:   d.Markers,
		},
		capset.Facts[string]{
			Implements: func(name string) bool { return implemented[name] },
			Possessed:  d.Possesses,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("type %s: %w", d.Name, err)
	}
	return tbl, nil
}

// Manifest is a parsed manifest file.
type Manifest struct {
	Path  string
	Types []TypeDecl
}

// Computed pairs a declaration with its castable set.
type Computed struct {
	Decl  TypeDecl
	Table *capset.Table[string]
}

// Load reads a manifest with Viper. The file type follows the extension.
func Load(path string) (*Manifest, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := FromViper(v)
	if err != nil {
		return nil, err
	}
	m.Path = path
	return m, nil
}

// FromViper decodes the "types" key of an already loaded Viper instance.
func FromViper(v *viper.Viper) (*Manifest, error) {
	raw, ok := v.Get("types").([]any)
	if !ok || len(raw) == 0 {
		return nil, ErrNoTypes
	}

	m := &Manifest{Types: make([]TypeDecl, 0, len(raw))}
	seen := make(map[string]bool, len(raw))
	for i, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: types[%d] is not a mapping", ErrInvalidEntry, i)
		}
		decl, err := parseEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("types[%d]: %w", i, err)
		}
		if seen[decl.Name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateType, decl.Name)
		}
		seen[decl.Name] = true
		m.Types = append(m.Types, decl)
	}
	return m, nil
}

func parseEntry(entry map[string]any) (TypeDecl, error) {
	var d TypeDecl
	name, _ := entry["name"].(string)
	d.Name = strings.TrimSpace(name)
	if d.Name == "" {
		return d, fmt.Errorf("%w: name is required", ErrInvalidEntry)
	}
	if d.Name == UniversalName || d.Name == SelfName {
		return d, fmt.Errorf("%w: %q is reserved", ErrInvalidEntry, d.Name)
	}

	var err error
	if d.Bases, err = stringList(entry, "bases"); err != nil {
		return d, err
	}
	if d.Implements, err = stringList(entry, "implements"); err != nil {
		return d, err
	}

	possesses, err := stringList(entry, "possesses")
	if err != nil {
		return d, err
	}
	if d.Possesses, err = markerSet(possesses); err != nil {
		return d, err
	}

	// Presence of the key, even with an empty list, makes the list explicit.
	if _, ok := entry["markers"]; ok {
		declared, err := stringList(entry, "markers")
		if err != nil {
			return d, err
		}
		set, err := markerSet(declared)
		if err != nil {
			return d, err
		}
		d.Markers = capset.DeclareMarkers(set.Markers()...)
	}
	return d, nil
}

func stringList(entry map[string]any, key string) ([]string, error) {
	v, ok := entry[key]
	if !ok || v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a list", ErrInvalidEntry, key)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("%w: %s entries must be non-empty strings", ErrInvalidEntry, key)
		}
		out = append(out, strings.TrimSpace(s))
	}
	return out, nil
}

func markerSet(names []string) (capset.MarkerSet, error) {
	var s capset.MarkerSet
	for _, name := range names {
		m, err := capset.ParseMarker(name)
		if err != nil {
			return 0, err
		}
		s = s.With(m)
	}
	return s, nil
}

// Lookup finds a declaration by name.
func (m *Manifest) Lookup(name string) (TypeDecl, error) {
	for _, d := range m.Types {
		if d.Name == name {
			return d, nil
		}
	}
	return TypeDecl{}, fmt.Errorf("%w: %s", ErrTypeNotFound, name)
}

// Compute derives every castable set, ordered by type name. The first
// rejected declaration aborts the whole manifest.
func (m *Manifest) Compute() ([]Computed, error) {
	out := make([]Computed, 0, len(m.Types))
	for _, d := range m.Types {
		tbl, err := d.Compute()
		if err != nil {
			return nil, err
		}
		out = append(out, Computed{Decl: d, Table: tbl})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Decl.Name < out[j].Decl.Name
	})
	return out, nil
}

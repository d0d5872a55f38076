package capcast

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/capcast/pkg/capset"
)

// Registry maps concrete types to their castable sets. Tables are computed
// once at declaration and never change afterwards.
type Registry struct {
	mu     sync.RWMutex
	tables map[reflect.Type]*capset.Table[reflect.Type]
	logger zerolog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger used for declaration diagnostics.
func WithLogger(logger zerolog.Logger) RegistryOption {
	return func(r *Registry) { r.logger = logger }
}

// NewRegistry creates an empty registry. Without WithLogger it is silent.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		tables: make(map[reflect.Type]*capset.Table[reflect.Type]),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Default is the registry used by Declare and the package-level handle
// constructors.
var Default = NewRegistry()

type declaration struct {
	bases   []reflect.Type
	markers capset.MarkerDecl
}

// DeclareOption shapes a declaration.
type DeclareOption func(*declaration)

// WithBases lists the base capabilities. Each must be an interface type the
// concrete type implements.
func WithBases(types ...reflect.Type) DeclareOption {
	return func(d *declaration) { d.bases = append(d.bases, types...) }
}

// WithMarkers sets the markers to combine with interfaces. Calling it with
// no markers suppresses every marker combination, and also every atomic
// shared cast. Omitting it uses Shareable and Transferable.
func WithMarkers(markers ...Marker) DeclareOption {
	return func(d *declaration) { d.markers = capset.DeclareMarkers(markers...) }
}

// Base returns the identity of interface I for WithBases.
func Base[I any]() reflect.Type {
	return reflect.TypeFor[I]()
}

// DeclareIn declares T in r.
func DeclareIn[T any](r *Registry, opts ...DeclareOption) error {
	return r.declare(reflect.TypeFor[T](), opts...)
}

// Declare declares T in the Default registry.
func Declare[T any](opts ...DeclareOption) error {
	return DeclareIn[T](Default, opts...)
}

// MustDeclare is Declare for package init; it panics on error.
func MustDeclare[T any](opts ...DeclareOption) {
	if err := Declare[T](opts...); err != nil {
		panic(err)
	}
}

func (r *Registry) declare(t reflect.Type, opts ...DeclareOption) error {
	if t.Kind() == reflect.Interface {
		return fmt.Errorf("%w: %v", ErrNotConcrete, t)
	}
	var d declaration
	for _, opt := range opts {
		opt(&d)
	}
	for _, base := range d.bases {
		if base == nil || base.Kind() != reflect.Interface {
			return fmt.Errorf("%w: %v", ErrNotInterface, base)
		}
	}

	tbl, err := capset.Compute(
		capset.Declaration[reflect.Type]{
			Concrete:  t,
			Universal: universalType,
			Self:      selfType,
			Bases:     d.bases,
			Markers:   d.markers,
		},
		capset.Facts[reflect.Type]{
			Implements: t.Implements,
			Possessed:  possessed(t),
		},
	)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tables[t]; ok {
		return fmt.Errorf("%w: %v", ErrAlreadyDeclared, t)
	}
	r.tables[t] = tbl

	r.logger.Debug().
		Stringer("type", t).
		Int("entries", tbl.Len()).
		Stringer("markers", tbl.Effective()).
		Msg("declared")
	if dropped := tbl.Dropped(); dropped != 0 {
		r.logger.Debug().
			Stringer("type", t).
			Stringer("markers", dropped).
			Msg("declared markers not possessed")
	}
	return nil
}

// Lookup returns the castable set of a declared type.
func (r *Registry) Lookup(t reflect.Type) (*capset.Table[reflect.Type], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tbl, ok := r.tables[t]
	return tbl, ok
}

// Declared lists declared types ordered by name.
func (r *Registry) Declared() []reflect.Type {
	r.mu.RLock()
	list := make([]reflect.Type, 0, len(r.tables))
	for t := range r.tables {
		list = append(list, t)
	}
	r.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool {
		return list[i].String() < list[j].String()
	})
	return list
}

// TypesOf returns the castable set of a value's concrete type.
func (r *Registry) TypesOf(v any) ([]Target, error) {
	h, err := r.header(v)
	if err != nil {
		return nil, err
	}
	return h.castableTypes(), nil
}

func (r *Registry) header(v any) (header, error) {
	if v == nil {
		return header{}, fmt.Errorf("%w: nil value", ErrNotDeclared)
	}
	t := reflect.TypeOf(v)
	tbl, ok := r.Lookup(t)
	if !ok {
		return header{}, fmt.Errorf("%w: %v", ErrNotDeclared, t)
	}
	return header{concrete: t, table: tbl}, nil
}

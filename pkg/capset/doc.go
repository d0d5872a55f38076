// Package capset computes castable sets: for one concrete type, every
// (interface, marker subset) pair the type may be cast to, plus the concrete
// type itself.
//
// The computation is generic over the identity used for types and
// interfaces. The runtime engine in pkg/capcast uses reflect.Type; the
// manifest tooling uses plain names.
package capset

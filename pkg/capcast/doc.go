// Package capcast stores values behind polymorphic handles and casts them, at
// runtime, to any capability their concrete type declared.
//
// A concrete type is declared once with its base capabilities (Go interface
// types) and the marker capabilities to consider. The registry turns the
// declaration into an immutable castable set (see pkg/capset). Five handle
// kinds consult that set:
//
//	Ref  borrowed, read-only           CastRef -> (Ref[T], bool)
//	Mut  borrowed, exclusive write     CastMut -> (Mut[T], bool)
//	Box  uniquely owned                CastBox -> (*Box[T], error)
//	Rc   shared, plain refcount        CastRc  -> (*Rc[T], error)
//	Arc  shared, atomic refcount       CastArc -> (*Arc[T], error)
//
// Borrowed casts report absence with false. Owning casts consume their input
// on success and hand it back inside a *CastError on failure, so ownership is
// never lost. CastArc additionally requires the type to carry generated
// Shareable and Transferable evidence.
//
//	capcast.MustDeclare[*Widget](capcast.WithBases(capcast.Base[io.Reader]()))
//	box := capcast.Must(capcast.NewBox(&Widget{}))
//	r, err := capcast.CastBox[io.Reader](box)
//	if err != nil {
//		box, _ = capcast.Recover[*capcast.Box[capcast.Dyn]](err)
//	}
package capcast

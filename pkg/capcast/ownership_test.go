package capcast

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCastBoxFailureReturnsOriginal(t *testing.T) {
	r := newTestRegistry(t)
	box := Must(r.NewBox(customStruct{}))
	id := box.ID()

	out, err := CastBox[Empty](box)
	require.Error(t, err)
	assert.Nil(t, out)

	back, ok := Recover[*Box[Dyn]](err)
	require.True(t, ok)
	assert.Same(t, box, back)
	assert.Equal(t, id, back.ID())
	assert.True(t, back.Live())

	// The recovered box is as good as new.
	tr, err := CastBox[Trait](back)
	require.NoError(t, err)
	v, err := tr.Get()
	require.NoError(t, err)
	assert.Equal(t, "custom", v.Trait())
}

func TestCastBoxSuccessConsumesInput(t *testing.T) {
	r := newTestRegistry(t)
	box := Must(r.NewBox(customStruct{}))
	id := box.ID()
	require.NotEqual(t, uuid.Nil, id)

	tr, err := CastBox[Trait](box, Movable)
	require.NoError(t, err)
	assert.Equal(t, id, tr.ID(), "cast keeps the allocation")

	assert.False(t, box.Live())
	assert.Equal(t, uuid.Nil, box.ID())
	assert.Empty(t, CastableTypes(box))
	_, err = box.Get()
	assert.ErrorIs(t, err, ErrConsumed)
	_, err = CastBox[any](box)
	assert.ErrorIs(t, err, ErrConsumed)
	_, ok := Recover[*Box[Dyn]](err)
	assert.False(t, ok, "nothing to hand back from a consumed box")
}

func TestBoxInto(t *testing.T) {
	r := newTestRegistry(t)
	box := Must(r.NewBox(defaultStruct{}))
	ref := box.Ref()
	require.True(t, ref.Valid())

	v, err := box.Into()
	require.NoError(t, err)
	assert.IsType(t, defaultStruct{}, v)
	assert.False(t, box.Live())
	assert.False(t, ref.Valid())
	assert.False(t, CanCast[any](ref))
	assert.Empty(t, CastableTypes(ref))
	_, ok := CastRef[any](ref)
	assert.False(t, ok)
	_, err = box.Into()
	assert.ErrorIs(t, err, ErrConsumed)
}

func TestBorrowFromOwners(t *testing.T) {
	r := newTestRegistry(t)

	box := Must(r.NewBox(customStruct{}))
	_, ok := CastRef[Trait](box.Ref())
	assert.True(t, ok)
	_, ok = CastMut[Trait](box.Mut())
	assert.True(t, ok)
	assert.True(t, box.Live(), "borrowing never consumes")

	rc := Must(r.NewRc(customStruct{}))
	_, ok = CastRef[Trait](rc.Ref(), Movable)
	assert.True(t, ok)
	assert.Equal(t, 1, rc.Count())

	arc := Must(r.NewArc(customStruct{}))
	_, ok = CastRef[Empty](arc.Ref())
	assert.False(t, ok)
	assert.EqualValues(t, 1, arc.Count())
}

func TestCastRcConservesCount(t *testing.T) {
	r := newTestRegistry(t)
	first := Must(r.NewRc(customStruct{}))
	second, err := first.Clone()
	require.NoError(t, err)
	require.Equal(t, 2, first.Count())

	_, err = CastRc[Empty](second)
	require.ErrorIs(t, err, ErrNotCastable)
	back, ok := Recover[*Rc[Dyn]](err)
	require.True(t, ok)
	assert.Same(t, second, back)
	assert.Equal(t, 2, first.Count(), "failed cast leaves the count alone")

	tr, err := CastRc[Trait](second)
	require.NoError(t, err)
	assert.False(t, second.Live())
	assert.Equal(t, 2, tr.Count(), "the share moved, it was not duplicated")
	assert.Equal(t, first.ID(), tr.ID())

	tr.Drop()
	assert.Equal(t, 1, first.Count())
	tr.Drop()
	assert.Equal(t, 1, first.Count(), "dropping a dead handle is a no-op")

	v, err := first.Get()
	require.NoError(t, err)
	assert.IsType(t, customStruct{}, v)

	ref := first.Ref()
	first.Drop()
	assert.Equal(t, 0, first.Count())
	assert.False(t, ref.Valid(), "last share releases the value")
	assert.False(t, CanCast[Trait](ref))
	assert.Empty(t, CastableTypes(ref))
	_, ok = CastRef[Trait](ref)
	assert.False(t, ok)
	_, err = first.Clone()
	assert.ErrorIs(t, err, ErrConsumed)
}

func TestCastArcConservesCount(t *testing.T) {
	r := newTestRegistry(t)
	first := Must(r.NewArc(minimalStruct{}))
	second, err := first.Clone()
	require.NoError(t, err)

	_, err = CastArc[minimalStruct](second)
	require.ErrorIs(t, err, ErrAtomicGate)
	back, ok := Recover[*Arc[Dyn]](err)
	require.True(t, ok)
	assert.Same(t, second, back)
	assert.True(t, second.Live())
	assert.EqualValues(t, 2, first.Count())

	// The same value is still reachable through the unique and plain forms.
	_, err = CastRc[minimalStruct](Must(r.NewRc(minimalStruct{})))
	assert.NoError(t, err)
	_, err = CastBox[minimalStruct](Must(r.NewBox(minimalStruct{})))
	assert.NoError(t, err)
}

func TestCastArcConcurrentShares(t *testing.T) {
	r := newTestRegistry(t)
	root := Must(r.NewArc(defaultStruct{}))

	const workers = 32
	shares := make([]*Arc[Dyn], workers)
	for i := range shares {
		shares[i] = Must(root.Clone())
	}
	require.EqualValues(t, workers+1, root.Count())

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for _, share := range shares {
		wg.Add(1)
		go func(share *Arc[Dyn]) {
			defer wg.Done()
			if _, err := CastArc[Empty](share); err == nil {
				errs <- assert.AnError
				return
			}
			extra, err := share.Clone()
			if err != nil {
				errs <- err
				return
			}
			extra.Drop()
			typed, err := CastArc[any](share, Shareable, Transferable)
			if err != nil {
				errs <- err
				return
			}
			typed.Drop()
		}(share)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.EqualValues(t, 1, root.Count())
}

func TestNotDeclared(t *testing.T) {
	r := NewRegistry()
	_, err := r.NewBox(defaultStruct{})
	assert.ErrorIs(t, err, ErrNotDeclared)
	_, err = r.NewRef(nil)
	assert.ErrorIs(t, err, ErrNotDeclared)
	_, err = r.TypesOf(3)
	assert.ErrorIs(t, err, ErrNotDeclared)
	assert.Panics(t, func() { Must(r.NewArc(defaultStruct{})) })
}

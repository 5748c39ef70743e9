package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingletonsRoundTrip(t *testing.T) {
	assert.True(t, NullVal().IsNull())
	assert.True(t, UndefinedVal().IsUndefined())
	assert.True(t, TrueVal().AsBool())
	assert.False(t, FalseVal().AsBool())
	assert.True(t, NullVal().IsFalsey())
	assert.True(t, FalseVal().IsFalsey())
	assert.False(t, TrueVal().IsFalsey())
	assert.False(t, NumVal(0).IsFalsey())
}

func TestNumRoundTrip(t *testing.T) {
	for _, n := range []float64{0, 1, -1, 3.5, 1e300, -1e300} {
		v := NumVal(n)
		require.True(t, v.IsNum())
		assert.Equal(t, n, v.AsNum())
	}
}

func TestNanIdentity(t *testing.T) {
	a := NanVal()
	b := NanVal()
	assert.True(t, Equal(a, b), "Num.nan == Num.nan must hold by singleton identity")
}

func TestObjRoundTrip(t *testing.T) {
	arena := NewArena()
	cls := arena.NewClass("Thing", nil)
	v := ObjVal(&cls.Obj)
	require.True(t, v.IsObj())
	assert.Same(t, cls, v.AsObj().Body().(*Class))
}

func TestStringEqualityByValue(t *testing.T) {
	arena := NewArena()
	a := arena.NewString("hi", nil)
	b := arena.NewString("hi", nil)
	va, vb := ObjVal(&a.Obj), ObjVal(&b.Obj)
	assert.False(t, Identity(va, vb), "distinct allocations are not identical")
	assert.True(t, Equal(va, vb), "equal bytes means value-equal")
	assert.Equal(t, Hash(va), Hash(vb))
}

func TestRangeEquality(t *testing.T) {
	arena := NewArena()
	r1 := arena.NewRange(1, 5, true, nil)
	r2 := arena.NewRange(1, 5, true, nil)
	r3 := arena.NewRange(1, 5, false, nil)
	assert.True(t, Equal(ObjVal(&r1.Obj), ObjVal(&r2.Obj)))
	assert.False(t, Equal(ObjVal(&r1.Obj), ObjVal(&r3.Obj)))
}

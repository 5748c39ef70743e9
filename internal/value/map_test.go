package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapEmptyHasNoStorage(t *testing.T) {
	m := NewMap()
	assert.Equal(t, 0, m.Count())
	assert.Nil(t, m.entries)
}

func TestMapSetGetRemove(t *testing.T) {
	m := NewMap()
	isNew := m.Set(NumVal(1), NumVal(100))
	assert.True(t, isNew)
	isNew = m.Set(NumVal(1), NumVal(200))
	assert.False(t, isNew, "re-setting an existing key is not new")

	v, ok := m.Get(NumVal(1))
	require.True(t, ok)
	assert.Equal(t, 200.0, v.AsNum())

	_, ok = m.Remove(NumVal(1))
	require.True(t, ok)
	assert.Equal(t, 0, m.Count())
	assert.Nil(t, m.entries, "removing the last key frees storage")
}

func TestMapGrowsAndKeepsLoadFactor(t *testing.T) {
	m := NewMap()
	for i := 0; i < 100; i++ {
		m.Set(NumVal(float64(i)), NumVal(float64(i*i)))
	}
	assert.Equal(t, 100, m.Count())
	for i := 0; i < 100; i++ {
		v, ok := m.Get(NumVal(float64(i)))
		require.True(t, ok)
		assert.Equal(t, float64(i*i), v.AsNum())
	}
	assert.LessOrEqual(t, float64(m.Count())/float64(m.capacity()), mapMaxLoad)
}

func TestMapIterateYieldsAllLiveEntries(t *testing.T) {
	m := NewMap()
	m.Set(NumVal(1), NumVal(10))
	m.Set(NumVal(2), NumVal(20))
	m.Set(NumVal(3), NumVal(30))
	m.Remove(NumVal(2))

	seen := map[float64]float64{}
	iter := UndefinedVal()
	for {
		next, ok := m.Iterate(iter)
		if !ok {
			break
		}
		k, v := m.IteratorValue(next)
		seen[k.AsNum()] = v.AsNum()
		iter = next
	}
	assert.Equal(t, map[float64]float64{1: 10, 3: 30}, seen)
}

package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slot struct {
	name string
	n    int
}

func TestAcquireUntilExhausted(t *testing.T) {
	p := New[slot](3)
	seen := map[int]bool{}
	for i := 0; i < 3; i++ {
		idx, ok := p.Acquire()
		require.True(t, ok)
		assert.False(t, seen[idx], "slot %d handed out twice", idx)
		seen[idx] = true
	}
	_, ok := p.Acquire()
	assert.False(t, ok, "fourth acquire on capacity 3 should fail")
	assert.Equal(t, 3, p.Len())
	assert.Equal(t, 0, p.Free())
}

func TestReleaseZeroesAndRecycles(t *testing.T) {
	p := New[slot](2)
	a, _ := p.Acquire()
	p.At(a).name = "rotate"
	p.At(a).n = 7

	require.True(t, p.Release(a))
	assert.False(t, p.InUse(a))
	assert.Equal(t, slot{}, *p.At(a))

	b, ok := p.Acquire()
	require.True(t, ok)
	assert.Equal(t, a, b, "most recently freed slot is reused first")
}

func TestDoubleReleaseIsRejected(t *testing.T) {
	p := New[slot](1)
	idx, _ := p.Acquire()
	assert.True(t, p.Release(idx))
	assert.False(t, p.Release(idx))
	assert.False(t, p.Release(-1))
	assert.False(t, p.Release(5))
	assert.Equal(t, 0, p.Len())
}

func TestResetFreesEverything(t *testing.T) {
	p := New[slot](4)
	for i := 0; i < 4; i++ {
		idx, _ := p.Acquire()
		p.At(idx).n = i + 1
	}
	p.Reset()
	assert.Equal(t, 0, p.Len())
	assert.Equal(t, 4, p.Free())

	count := 0
	p.Each(func(int, *slot) { count++ })
	assert.Zero(t, count)

	for i := 0; i < 4; i++ {
		_, ok := p.Acquire()
		assert.True(t, ok)
	}
}

func TestZeroCapacity(t *testing.T) {
	p := New[slot](0)
	_, ok := p.Acquire()
	assert.False(t, ok)
	assert.Equal(t, 0, p.Cap())
}

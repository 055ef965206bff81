package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupIsIdempotent(t *testing.T) {
	in := []string{"P1", "P2", "P1", "P3", "P2"}

	once := Dedup(in)
	twice := Dedup(once)

	assert.Equal(t, []string{"P1", "P2", "P3"}, once)
	assert.Equal(t, once, twice)
}

func TestIdentifierSetIgnoresEmpty(t *testing.T) {
	s := NewIdentifierSet("A", "", "A", "B")

	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has("A"))
	assert.False(t, s.Has(""))
}

func TestUnionProperties(t *testing.T) {
	a := NewIdentifierSet("Smp_1", "Smp_2")
	b := NewIdentifierSet("Smp_2", "Smp_3")

	ab := a.Union(b)
	ba := b.Union(a)

	assert.Equal(t, ab.Sorted(), ba.Sorted(), "union must be commutative")
	assert.Equal(t, ab.Sorted(), ab.Union(ab).Sorted(), "union must be idempotent")
	assert.Equal(t, []string{"Smp_1", "Smp_2", "Smp_3"}, ab.Sorted())

	// Union darf die Operanden nicht verändern.
	assert.Equal(t, 2, a.Len())
	assert.Equal(t, 2, b.Len())
}

func TestMerge(t *testing.T) {
	s := NewIdentifierSet("X")
	s.Merge(NewIdentifierSet("Y", "X"))

	assert.Equal(t, []string{"X", "Y"}, s.Sorted())
}

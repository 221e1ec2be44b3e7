package dataplane

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoreMap(t *testing.T) {
	m := NewWithTrailingOnes(3)
	assert.Equal(t, 3, m.Len())
	assert.EqualValues(t, 3, m.Max())
	assert.Equal(t, []uint32{0, 1, 2}, slices.Collect(m.Iter()))

	m.Enable(7)
	assert.True(t, m.Contains(7))
	assert.False(t, m.Contains(5))
	assert.False(t, m.Contains(40))
	assert.EqualValues(t, 8, m.Max())
	assert.Equal(t, []uint32{0, 1, 2, 7}, slices.Collect(m.Iter()))

	assert.True(t, NewWithTrailingOnes(0).IsEmpty())
	assert.Zero(t, CoreMap(0).Max())
	assert.Equal(t, AllCores, NewWithTrailingOnes(MaxCores))
	assert.Equal(t, MaxCores, AllCores.Len())

	assert.Panics(t, func() { NewWithOneCore(MaxCores) })
}

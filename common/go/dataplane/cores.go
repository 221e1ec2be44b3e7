package dataplane

import (
	"iter"
	"math/bits"
)

// MaxCores is the number of execution cores a CoreMap can address.
const MaxCores = 32

const AllCores = CoreMap(^uint32(0))

// CoreMap is a bit mask of execution cores.
//
// Each core runs packet chains to completion on its own and owns the
// core-local slots of the shared tables (statistics, parsing contexts).
type CoreMap uint32

// NewWithOneCore returns a core map with a single core set (zero-based).
//
// Panics if the idx >= MaxCores.
func NewWithOneCore(idx uint32) CoreMap {
	if idx >= MaxCores {
		panic("core index is out of range")
	}

	return CoreMap(1 << idx)
}

// NewWithTrailingOnes returns a core map with the first numOnes cores set.
func NewWithTrailingOnes(numOnes int) CoreMap {
	if numOnes <= 0 {
		return CoreMap(0)
	}
	if numOnes >= MaxCores {
		return AllCores
	}

	return CoreMap(^uint32(0) >> (MaxCores - numOnes))
}

func (m CoreMap) IsEmpty() bool {
	return m == 0
}

func (m CoreMap) Len() int {
	return bits.OnesCount32(uint32(m))
}

func (m CoreMap) Contains(idx uint32) bool {
	return idx < MaxCores && m&(1<<idx) != 0
}

// Max returns the index of the highest core set plus one, that is the number
// of per-core slots a table must have to serve every core in the map.
func (m CoreMap) Max() uint32 {
	return uint32(MaxCores - bits.LeadingZeros32(uint32(m)))
}

// Iter iterates over the cores set, from the lowest index to the highest.
func (m CoreMap) Iter() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		word := uint32(m)
		for word > 0 {
			idx := bits.TrailingZeros32(word)
			// Clears the lowest set bit.
			word &= word - 1

			if !yield(uint32(idx)) {
				return
			}
		}
	}
}

func (m *CoreMap) Enable(idx uint32) {
	*m |= NewWithOneCore(idx)
}

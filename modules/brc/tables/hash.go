package tables

const (
	// FNVOffsetBasis32 is the 32-bit FNV offset basis.
	FNVOffsetBasis32 uint32 = 2166136261
	// FNVPrime32 is the 32-bit FNV prime.
	FNVPrime32 uint32 = 16777619
)

// Hash computes the 32-bit FNV-1a hash of key, left to right.
//
// Both the request and the reply side use this routine, so a key always maps
// to the same cache slot no matter which stage computes it.
func Hash(key []byte) uint32 {
	hash := FNVOffsetBasis32
	for idx := 0; idx < len(key); idx++ {
		hash ^= uint32(key[idx])
		hash *= FNVPrime32
	}
	return hash
}

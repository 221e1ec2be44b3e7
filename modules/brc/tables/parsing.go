package tables

// Direction is the hook a stage chain runs on.
type Direction uint8

const (
	// Ingress is the hook for packets arriving from clients.
	Ingress Direction = iota
	// Egress is the hook for packets leaving the server.
	Egress

	directionCount
)

func (m Direction) String() string {
	switch m {
	case Ingress:
		return "ingress"
	case Egress:
		return "egress"
	default:
		return "unknown"
	}
}

// ParsingContext passes parser state from a classifier to the next stage of
// the same chain.
//
// On ingress ValueSize is the key length and ReadOffset the payload offset
// of the "\r\n" terminating the key length token. On egress ValueSize is the
// value length and ReadOffset the payload offset of the first value byte.
type ParsingContext struct {
	ValueSize  uint32
	ReadOffset uint16
}

// ParsingContextTable holds one ParsingContext per core and direction.
//
// A slot is valid only while a single chain runs on its core; the next chain
// on the same core and direction overwrites it.
type ParsingContextTable struct {
	slots []ParsingContext
}

func NewParsingContextTable(cores uint32) *ParsingContextTable {
	return &ParsingContextTable{
		slots: make([]ParsingContext, uint64(cores)*uint64(directionCount)),
	}
}

// Lookup returns the slot for core and direction, or nil if there is none.
func (m *ParsingContextTable) Lookup(core uint32, direction Direction) *ParsingContext {
	if direction >= directionCount {
		return nil
	}

	idx := uint64(core)*uint64(directionCount) + uint64(direction)
	if idx >= uint64(len(m.slots)) {
		return nil
	}
	return &m.slots[idx]
}

package pipeline

// The only request recognized is a two-element array holding the "get"
// command and a key:
//
//	*2\r\n$3\r\nget\r\n$<len>\r\n<key>\r\n
//
// The only replies recognized are bulk strings, including the nil one:
//
//	$<len>\r\n<value>\r\n
//	$-1\r\n
var getCommandPrefix = []byte("*2\r\n$3\r\nget\r\n")

const (
	// Offset of the command name within getCommandPrefix.
	getCommandNameOff = 8
	getCommandNameLen = 3
	// Offset of the '$' opening the key length token.
	keyLengthMarkerOff = 13

	bulkMarker  = '$'
	nilMarker   = '-'
	terminator0 = '\r'
	terminator1 = '\n'

	// maxLengthDigits bounds the length token scan.
	maxLengthDigits = 10
)

// isGetRequest reports whether the payload starts with a two-element GET
// command. The command name is matched case-insensitively.
func isGetRequest(p payload) bool {
	prefix, ok := p.slice(0, len(getCommandPrefix))
	if !ok {
		return false
	}

	for idx := range prefix {
		b := prefix[idx]
		if idx >= getCommandNameOff && idx < getCommandNameOff+getCommandNameLen {
			b |= 0x20
		}
		if b != getCommandPrefix[idx] {
			return false
		}
	}
	return true
}

// scanLength accumulates the decimal digits starting at idx.
//
// The scan stops at the first non-digit, after maxLengthDigits digits or as
// soon as the value exceeds limit, in which case over is set. next is the
// index of the first byte not consumed.
func scanLength(p payload, idx int, limit uint32) (value uint32, next int, over bool) {
	next = idx
	for digits := 0; digits < maxLengthDigits; digits++ {
		b, ok := p.at(next)
		if !ok || b < '0' || b > '9' {
			break
		}

		value = value*10 + uint32(b-'0')
		next++
		if value > limit {
			return value, next, true
		}
	}
	return value, next, false
}

// hasTerminator reports whether "\r\n" sits at idx.
func hasTerminator(p payload, idx int) bool {
	term, ok := p.slice(idx, 2)
	return ok && term[0] == terminator0 && term[1] == terminator1
}

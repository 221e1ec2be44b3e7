package xpacket

import (
	"strconv"
)

// Command encodes args as a bulk-reply protocol array of bulk strings, the
// way clients send commands.
func Command(args ...string) []byte {
	out := make([]byte, 0, 16*len(args)+8)
	out = append(out, '*')
	out = strconv.AppendInt(out, int64(len(args)), 10)
	out = append(out, '\r', '\n')
	for _, arg := range args {
		out = append(out, BulkString([]byte(arg))...)
	}
	return out
}

// GetCommand encodes a two-element GET command for the given key.
func GetCommand(key string) []byte {
	return Command("get", key)
}

// BulkString encodes a bulk reply carrying value.
func BulkString(value []byte) []byte {
	out := make([]byte, 0, len(value)+16)
	out = append(out, '$')
	out = strconv.AppendInt(out, int64(len(value)), 10)
	out = append(out, '\r', '\n')
	out = append(out, value...)
	out = append(out, '\r', '\n')
	return out
}

// NilBulkString encodes the nil bulk reply the server sends for a missing key.
func NilBulkString() []byte {
	return []byte("$-1\r\n")
}

// Package frame implements encoding and decoding of channel message frames.
//
// Every frame starts with a one byte message type. Channel names, type tags
// and payloads are length prefixed with an unsigned base-128 varint.
package frame

import "io"

var (
	// Debug can be set to get message frames as they're encoded and decoded
	Debug io.Writer

	// MaxPayloadLength bounds any length prefix read off the wire. Larger
	// values are treated as a malformed frame.
	MaxPayloadLength uint64 = 64 << 20
)

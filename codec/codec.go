// Package codec provides the value encodings used for typed channel payloads
// and the Registry that maps Go values to a wire tag and a Serializer.
package codec

import (
	"io"
)

type Encoder interface {
	// Encode writes an encoding of v to its Writer.
	Encode(v any) error
}

type Decoder interface {
	// Decode reads the next encoded value from its Reader and stores it in the value pointed to by v.
	Decode(v any) error
}

// Codec returns an Encoder or Decoder given a Writer or Reader.
type Codec interface {
	Encoder(w io.Writer) Encoder
	Decoder(r io.Reader) Decoder
}

// Serializer turns one value into a payload and back. Decode returns
// the concrete value, not a pointer to it, unless the registered type
// is itself a pointer type.
type Serializer interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte) (any, error)
}

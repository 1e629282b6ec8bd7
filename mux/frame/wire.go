package frame

import (
	"fmt"
	"io"

	"github.com/multiformats/go-varint"
)

func stringSize(s string) int {
	return varint.UvarintSize(uint64(len(s))) + len(s)
}

func bytesSize(b []byte) int {
	return varint.UvarintSize(uint64(len(b))) + len(b)
}

func appendString(b []byte, s string) []byte {
	b = append(b, varint.ToUvarint(uint64(len(s)))...)
	return append(b, s...)
}

func appendBytes(b []byte, p []byte) []byte {
	b = append(b, varint.ToUvarint(uint64(len(p)))...)
	return append(b, p...)
}

// byteReader reads single bytes with io.ReadFull so that no more than the
// frame is ever consumed from the underlying reader.
type byteReader struct {
	r   io.Reader
	buf [1]byte
}

func (br *byteReader) ReadByte() (byte, error) {
	if _, err := io.ReadFull(br.r, br.buf[:]); err != nil {
		return 0, err
	}
	return br.buf[0], nil
}

func readLength(br *byteReader) (int, error) {
	n, err := varint.ReadUvarint(br)
	if err != nil {
		return 0, err
	}
	if n > MaxPayloadLength {
		return 0, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
	}
	return int(n), nil
}

func readBytes(br *byteReader) ([]byte, error) {
	n, err := readLength(br)
	if err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(br.r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func readString(br *byteReader) (string, error) {
	b, err := readBytes(br)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

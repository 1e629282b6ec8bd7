// Package transport provides the byte stream contract a mux.Connection
// runs over, and helpers that dial and listen on concrete transports.
package transport

import (
	"io"
	"time"
)

// Stream is a transport stream as seen by a Connection. Read fills p
// completely or fails: it returns io.EOF if the stream ended before any
// byte was read and io.ErrUnexpectedEOF if it ended part way. Flush sends
// buffered writes; unbuffered streams return nil.
type Stream interface {
	io.ReadWriteCloser
	Flush() error
}

// yieldInterval is how long a NetStream waits after a read returned no
// data and no error.
var yieldInterval = time.Millisecond

type flusher interface {
	Flush() error
}

// NetStream adapts a byte stream such as a net.Conn to the Stream
// contract.
type NetStream struct {
	rwc io.ReadWriteCloser
}

// NewNetStream wraps rwc.
func NewNetStream(rwc io.ReadWriteCloser) *NetStream {
	return &NetStream{rwc: rwc}
}

// Unwrap returns the wrapped stream.
func (s *NetStream) Unwrap() io.ReadWriteCloser {
	return s.rwc
}

// Read blocks until p is full.
func (s *NetStream) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		m, err := s.rwc.Read(p[n:])
		n += m
		if err == io.EOF {
			if n == 0 {
				return 0, io.EOF
			}
			if n < len(p) {
				return n, io.ErrUnexpectedEOF
			}
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if m == 0 {
			time.Sleep(yieldInterval)
		}
	}
	return n, nil
}

func (s *NetStream) Write(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		m, err := s.rwc.Write(p[n:])
		n += m
		if err != nil {
			return n, err
		}
		if m == 0 {
			return n, io.ErrShortWrite
		}
	}
	return n, nil
}

// Flush flushes the wrapped stream if it buffers writes.
func (s *NetStream) Flush() error {
	if f, ok := s.rwc.(flusher); ok {
		return f.Flush()
	}
	return nil
}

func (s *NetStream) Close() error {
	return s.rwc.Close()
}

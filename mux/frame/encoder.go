package frame

import (
	"fmt"
	"io"
	"sync"
)

type flusher interface {
	Flush() error
}

// Encoder encodes messages given an io.Writer. Each message is written
// with a single Write call and, if the writer can flush, flushed before
// the lock is released, so frames from concurrent callers never interleave.
type Encoder struct {
	w io.Writer
	sync.Mutex
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

func (enc *Encoder) Encode(msg Message) error {
	enc.Lock()
	defer enc.Unlock()

	if Debug != nil {
		fmt.Fprintln(Debug, "<<ENC", msg)
	}

	if _, err := enc.w.Write(msg.Bytes()); err != nil {
		return err
	}
	if f, ok := enc.w.(flusher); ok {
		return f.Flush()
	}
	return nil
}

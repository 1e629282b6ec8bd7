package transport

import (
	"io"
	"net"
	"os"
	"sync"

	"go.uber.org/multierr"

	"github.com/progrium/synapse-go/mux"
)

type ioduplex struct {
	io.WriteCloser
	io.ReadCloser
}

func (d *ioduplex) Close() error {
	return multierr.Combine(d.WriteCloser.Close(), d.ReadCloser.Close())
}

// DialIO returns a connection that writes to out and reads from in.
func DialIO(out io.WriteCloser, in io.ReadCloser, opts ...mux.Option) (*mux.Connection, error) {
	return mux.New(NewNetStream(&ioduplex{out, in}), opts...), nil
}

// DialStdio returns a connection over Stdout and Stdin.
func DialStdio(opts ...mux.Option) (*mux.Connection, error) {
	return DialIO(os.Stdout, os.Stdin, opts...)
}

// ioListener wraps a single stream to use as a listener.
type ioListener struct {
	mu   sync.Mutex
	rwc  io.ReadWriteCloser
	opts []mux.Option
	once sync.Once
	done chan struct{}
}

// Accept returns a connection over the wrapped stream the first time it
// is called, then blocks until the listener is closed.
func (l *ioListener) Accept() (*mux.Connection, error) {
	l.mu.Lock()
	rwc := l.rwc
	l.rwc = nil
	l.mu.Unlock()
	if rwc == nil {
		<-l.done
		return nil, io.EOF
	}
	return mux.New(NewNetStream(rwc), l.opts...), nil
}

func (l *ioListener) Close() error {
	l.once.Do(func() { close(l.done) })
	return nil
}

func (l *ioListener) Addr() net.Addr {
	return nil
}

// ListenIO returns a Listener that yields one connection over separate
// WriteCloser and ReadCloser.
func ListenIO(out io.WriteCloser, in io.ReadCloser, opts ...mux.Option) Listener {
	return &ioListener{
		rwc:  &ioduplex{out, in},
		opts: opts,
		done: make(chan struct{}),
	}
}

// ListenStdio is ListenIO with Stdout and Stdin.
func ListenStdio(opts ...mux.Option) Listener {
	return ListenIO(os.Stdout, os.Stdin, opts...)
}

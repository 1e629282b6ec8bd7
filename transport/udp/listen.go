package udp

import (
	"context"
	"net"

	"github.com/progrium/synapse-go/mux"
)

// Listener returns a connection for each new peer of a Demux.
type Listener struct {
	d        *Demux
	connOpts []mux.Option
}

// Listen binds a UDP socket on addr and starts a Demux on it.
func Listen(addr string, opts ...Option) (*Listener, error) {
	laddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, err
	}
	d := NewDemux(conn, opts...)
	return &Listener{d: d, connOpts: d.opts.connOpts}, nil
}

// Demux returns the listener's demultiplexer.
func (l *Listener) Demux() *Demux {
	return l.d
}

// Accept waits for a new peer and returns a connection over its stream.
// Datagrams that arrive before Run is called are kept.
func (l *Listener) Accept() (*mux.Connection, error) {
	p, err := l.d.Accept(context.Background())
	if err != nil {
		return nil, err
	}
	return mux.New(p, l.connOpts...), nil
}

func (l *Listener) Addr() net.Addr {
	return l.d.LocalAddr()
}

// Close closes the demultiplexer and its socket.
func (l *Listener) Close() error {
	return l.d.Close()
}

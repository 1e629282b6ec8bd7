package transport

import (
	"github.com/progrium/synapse-go/mux"
	"github.com/progrium/synapse-go/transport/udp"
)

// DialUDP returns a connection over a connected UDP socket. Each frame is
// sent as one datagram.
func DialUDP(addr string, opts ...mux.Option) (*mux.Connection, error) {
	stream, err := udp.Dial(addr)
	if err != nil {
		return nil, err
	}
	return mux.New(stream, opts...), nil
}

// ListenUDP listens on a UDP address and returns a connection per peer.
func ListenUDP(addr string, opts ...mux.Option) (Listener, error) {
	l, err := udp.Listen(addr, udp.WithConnOptions(opts...))
	if err != nil {
		return nil, err
	}
	return l, nil
}

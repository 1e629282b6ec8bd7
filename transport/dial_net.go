package transport

import (
	"net"

	"github.com/progrium/synapse-go/mux"
)

func dialNet(proto, addr string, opts []mux.Option) (*mux.Connection, error) {
	conn, err := net.Dial(proto, addr)
	if err != nil {
		return nil, err
	}
	return mux.New(NewNetStream(conn), opts...), nil
}

// DialTCP connects to a TCP address.
func DialTCP(addr string, opts ...mux.Option) (*mux.Connection, error) {
	return dialNet("tcp", addr, opts)
}

// DialUnix connects to a Unix domain socket.
func DialUnix(path string, opts ...mux.Option) (*mux.Connection, error) {
	return dialNet("unix", path, opts)
}

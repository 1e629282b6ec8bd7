package transport

import (
	"net"

	"github.com/progrium/synapse-go/mux"
)

// Listener accepts connections from a transport. Accepted connections are
// not yet running: register handlers, then call Run.
type Listener interface {
	// Close closes the listener.
	// Any blocked Accept operations will be unblocked and return errors.
	Close() error

	// Accept waits for and returns the next incoming connection.
	Accept() (*mux.Connection, error)

	// Addr returns the listener's network address, or nil.
	Addr() net.Addr
}

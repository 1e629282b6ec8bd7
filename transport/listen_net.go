package transport

import (
	"io"
	"net"
	"sync"

	"github.com/progrium/synapse-go/mux"
)

// NetListener wraps a net.Listener to return connections.
type NetListener struct {
	net.Listener
	opts     []mux.Option
	accepted chan *mux.Connection
	closer   chan struct{}
	once     sync.Once
	errs     chan error
}

func newNetListener(l net.Listener, opts []mux.Option) *NetListener {
	return &NetListener{
		Listener: l,
		opts:     opts,
		accepted: make(chan *mux.Connection),
		closer:   make(chan struct{}),
		errs:     make(chan error, 2),
	}
}

// Accept waits for and returns the next connection to the listener.
func (l *NetListener) Accept() (*mux.Connection, error) {
	select {
	case <-l.closer:
		return nil, io.EOF
	case err := <-l.errs:
		return nil, err
	case conn := <-l.accepted:
		return conn, nil
	}
}

// Close closes the listener.
// Any blocked Accept operations will be unblocked and return errors.
func (l *NetListener) Close() error {
	l.once.Do(func() { close(l.closer) })
	return l.Listener.Close()
}

// offer hands conn to Accept, or closes it if the listener is closed.
func (l *NetListener) offer(conn *mux.Connection) bool {
	select {
	case l.accepted <- conn:
		return true
	case <-l.closer:
		conn.Close()
		return false
	}
}

func (l *NetListener) fail(err error) {
	select {
	case l.errs <- err:
	default:
	}
}

func listenNet(proto, addr string, opts []mux.Option) (*NetListener, error) {
	l, err := net.Listen(proto, addr)
	if err != nil {
		return nil, err
	}
	nl := newNetListener(l, opts)
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				nl.fail(err)
				return
			}
			if !nl.offer(mux.New(NewNetStream(conn), opts...)) {
				return
			}
		}
	}()
	return nl, nil
}

// ListenTCP creates a TCP listener at the given address.
func ListenTCP(addr string, opts ...mux.Option) (*NetListener, error) {
	return listenNet("tcp", addr, opts)
}

// ListenUnix creates a Unix domain socket listener at the given path.
func ListenUnix(path string, opts ...mux.Option) (*NetListener, error) {
	return listenNet("unix", path, opts)
}

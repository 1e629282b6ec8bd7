package udp

import (
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
)

// maxDatagramSize is the largest UDP payload a ClientStream can receive.
const maxDatagramSize = 65535

// ClientStream is a stream over a connected UDP socket, for the dialing
// side. Writes are buffered until Flush, which sends them as one datagram.
// Reads receive datagrams from the socket as needed.
type ClientStream struct {
	conn *net.UDPConn

	wmu  sync.Mutex
	wbuf []byte

	rmu     sync.Mutex
	q       *queue
	scratch []byte

	closed atomic.Bool
}

// NewClientStream returns a stream over a connected socket. The stream
// owns conn.
func NewClientStream(conn *net.UDPConn) *ClientStream {
	return &ClientStream{
		conn:    conn,
		q:       newQueue(),
		scratch: make([]byte, maxDatagramSize),
	}
}

// Dial connects a UDP socket to addr.
func Dial(addr string) (*ClientStream, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, err
	}
	return NewClientStream(conn), nil
}

// LocalAddr returns the local address of the socket.
func (s *ClientStream) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

// RemoteAddr returns the address the socket is connected to.
func (s *ClientStream) RemoteAddr() net.Addr {
	return s.conn.RemoteAddr()
}

// Read blocks until p is full, receiving datagrams as needed.
func (s *ClientStream) Read(p []byte) (int, error) {
	s.rmu.Lock()
	defer s.rmu.Unlock()
	for s.q.len() < len(p) {
		n, err := s.conn.Read(s.scratch)
		if err != nil {
			if s.closed.Load() || errors.Is(err, net.ErrClosed) {
				s.q.close()
				return s.q.readFull(p)
			}
			return 0, err
		}
		datagramsReceived.Inc()
		s.q.push(s.scratch[:n])
	}
	return s.q.readFull(p)
}

// Write appends p to the pending datagram.
func (s *ClientStream) Write(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	s.wmu.Lock()
	defer s.wmu.Unlock()
	s.wbuf = append(s.wbuf, p...)
	return len(p), nil
}

// Flush sends the pending bytes as one datagram.
func (s *ClientStream) Flush() error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if len(s.wbuf) == 0 {
		return nil
	}
	_, err := s.conn.Write(s.wbuf)
	s.wbuf = s.wbuf[:0]
	if err != nil {
		return err
	}
	datagramsSent.Inc()
	return nil
}

// Close closes the socket.
func (s *ClientStream) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.conn.Close()
}

var _ io.ReadWriteCloser = (*ClientStream)(nil)

package udp

import (
	"net"
	"sync"
)

// PeerStream is the server side stream for one remote address. It shares
// the Demux socket: reads come from datagrams the Demux routes to it, and
// Flush sends the pending bytes to the peer as one datagram.
type PeerStream struct {
	conn *net.UDPConn
	addr *net.UDPAddr
	q    *queue

	wmu  sync.Mutex
	wbuf []byte
}

func newPeerStream(conn *net.UDPConn, addr *net.UDPAddr) *PeerStream {
	return &PeerStream{conn: conn, addr: addr, q: newQueue()}
}

// RemoteAddr returns the peer address.
func (s *PeerStream) RemoteAddr() net.Addr {
	return s.addr
}

// Read blocks until p is full or the stream is closed.
func (s *PeerStream) Read(p []byte) (int, error) {
	return s.q.readFull(p)
}

// Write appends p to the pending datagram.
func (s *PeerStream) Write(p []byte) (int, error) {
	if s.q.isClosed() {
		return 0, ErrClosed
	}
	s.wmu.Lock()
	defer s.wmu.Unlock()
	s.wbuf = append(s.wbuf, p...)
	return len(p), nil
}

// Flush sends the pending bytes to the peer.
func (s *PeerStream) Flush() error {
	if s.q.isClosed() {
		return ErrClosed
	}
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if len(s.wbuf) == 0 {
		return nil
	}
	_, err := s.conn.WriteToUDP(s.wbuf, s.addr)
	s.wbuf = s.wbuf[:0]
	if err != nil {
		return err
	}
	datagramsSent.Inc()
	return nil
}

// Close ends the stream. The socket belongs to the Demux and stays open.
func (s *PeerStream) Close() error {
	s.q.close()
	return nil
}

func (s *PeerStream) feed(p []byte) {
	s.q.push(p)
}

// Package udp carries connections over UDP. A ClientStream serves the
// dialing side; on the listening side a Demux reads the shared socket and
// routes datagrams to one PeerStream per remote address.
package udp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/xid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrClosed is returned by operations on a closed Demux or stream.
var ErrClosed = errors.New("udp: closed")

// NewPeerEvent is raised when a datagram arrives from a new address.
type NewPeerEvent struct {
	Peer *PeerStream
}

// Demux routes datagrams received on one socket to a PeerStream per
// source address. Peers are never forgotten while the Demux is open.
type Demux struct {
	conn *net.UDPConn
	opts options
	log  *zap.Logger

	mu      sync.Mutex
	peers   map[string]*PeerStream
	pending []*PeerStream
	notify  chan struct{}

	subMu   sync.RWMutex
	subKeys []string
	subs    map[string]func(NewPeerEvent)

	wmu     sync.Mutex
	workers []context.CancelFunc
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc

	closed atomic.Bool
	done   chan struct{}
}

// NewDemux starts receiving on conn. The Demux owns conn.
func NewDemux(conn *net.UDPConn, opts ...Option) *Demux {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Demux{
		conn:   conn,
		opts:   o,
		log:    o.log,
		peers:  make(map[string]*PeerStream),
		notify: make(chan struct{}, 1),
		subs:   make(map[string]func(NewPeerEvent)),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	d.SetWorkers(o.workers)
	return d
}

// LocalAddr returns the address of the socket.
func (d *Demux) LocalAddr() net.Addr {
	return d.conn.LocalAddr()
}

// Workers returns the number of running receive workers.
func (d *Demux) Workers() int {
	d.wmu.Lock()
	defer d.wmu.Unlock()
	return len(d.workers)
}

// SetWorkers grows or shrinks the receive worker pool to n.
func (d *Demux) SetWorkers(n int) error {
	if n <= 0 {
		return fmt.Errorf("udp: worker count must be positive, got %d", n)
	}
	d.wmu.Lock()
	defer d.wmu.Unlock()
	if d.closed.Load() {
		return ErrClosed
	}
	for len(d.workers) > n {
		last := len(d.workers) - 1
		d.workers[last]()
		d.workers = d.workers[:last]
	}
	for len(d.workers) < n {
		ctx, cancel := context.WithCancel(d.ctx)
		d.workers = append(d.workers, cancel)
		d.wg.Add(1)
		go d.receive(ctx)
	}
	return nil
}

func (d *Demux) receive(ctx context.Context) {
	defer d.wg.Done()
	buf := make([]byte, d.opts.bufSize)
	for ctx.Err() == nil {
		d.conn.SetReadDeadline(time.Now().Add(d.opts.poll))
		n, addr, err := d.conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			var ne net.Error
			if !errors.As(err, &ne) || !ne.Timeout() {
				d.log.Debug("receive failed", zap.Error(err))
				time.Sleep(d.opts.poll)
			}
			continue
		}
		d.route(addr, buf[:n])
	}
}

// route hands a datagram to the stream for its source address. A new
// stream is registered, announced and fed its first datagram under the
// table lock so no later datagram from the same address can overtake it.
func (d *Demux) route(addr *net.UDPAddr, data []byte) {
	datagramsReceived.Inc()
	key := addr.String()

	d.mu.Lock()
	p, ok := d.peers[key]
	if ok {
		d.mu.Unlock()
		p.feed(data)
		return
	}
	p = newPeerStream(d.conn, addr)
	d.peers[key] = p
	d.pending = append(d.pending, p)
	peersActive.Inc()
	d.log.Info("new peer", zap.Stringer("addr", addr))
	d.emit(NewPeerEvent{Peer: p})
	p.feed(data)
	d.mu.Unlock()

	select {
	case d.notify <- struct{}{}:
	default:
	}
}

// Subscription is a NewPeerEvent callback registration.
type Subscription struct {
	d    *Demux
	key  string
	once sync.Once
}

// Close removes the callback.
func (s *Subscription) Close() error {
	s.once.Do(func() {
		s.d.subMu.Lock()
		defer s.d.subMu.Unlock()
		delete(s.d.subs, s.key)
		for i, k := range s.d.subKeys {
			if k == s.key {
				s.d.subKeys = append(s.d.subKeys[:i:i], s.d.subKeys[i+1:]...)
				break
			}
		}
	})
	return nil
}

// OnPeer registers fn to be called for every new peer, in registration
// order. fn runs on a receive worker while the peer table is locked, so it
// must not call back into the Demux.
func (d *Demux) OnPeer(fn func(NewPeerEvent)) *Subscription {
	key := xid.New().String()
	d.subMu.Lock()
	d.subs[key] = fn
	d.subKeys = append(d.subKeys, key)
	d.subMu.Unlock()
	return &Subscription{d: d, key: key}
}

func (d *Demux) emit(e NewPeerEvent) {
	d.subMu.RLock()
	fns := make([]func(NewPeerEvent), 0, len(d.subKeys))
	for _, k := range d.subKeys {
		fns = append(fns, d.subs[k])
	}
	d.subMu.RUnlock()
	for _, fn := range fns {
		fn(e)
	}
}

// Accept returns new peers in the order they were first seen.
func (d *Demux) Accept(ctx context.Context) (*PeerStream, error) {
	for {
		d.mu.Lock()
		if len(d.pending) > 0 {
			p := d.pending[0]
			d.pending[0] = nil
			d.pending = d.pending[1:]
			d.mu.Unlock()
			return p, nil
		}
		d.mu.Unlock()

		select {
		case <-d.notify:
		case <-d.done:
			return nil, ErrClosed
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Peer returns the stream for a remote address.
func (d *Demux) Peer(addr net.Addr) (*PeerStream, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.peers[addr.String()]
	return p, ok
}

// Peers returns all known peer streams.
func (d *Demux) Peers() []*PeerStream {
	d.mu.Lock()
	defer d.mu.Unlock()
	peers := make([]*PeerStream, 0, len(d.peers))
	for _, p := range d.peers {
		peers = append(peers, p)
	}
	return peers
}

// Close stops the workers, closes every peer stream and the socket.
func (d *Demux) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	d.wmu.Lock()
	d.cancel()
	d.workers = nil
	d.wmu.Unlock()
	d.wg.Wait()
	close(d.done)

	var err error
	d.mu.Lock()
	for _, p := range d.peers {
		err = multierr.Append(err, p.Close())
	}
	peersActive.Sub(float64(len(d.peers)))
	d.mu.Unlock()

	return multierr.Append(err, d.conn.Close())
}

// Package mux implements named channel multiplexing over a single byte
// stream or datagram transport.
package mux

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/progrium/synapse-go/codec"
	"github.com/progrium/synapse-go/mux/frame"
)

var (
	// ErrDisposed is returned by operations on a disposed connection.
	ErrDisposed = errors.New("synapse: connection disposed")

	// ErrChannelNotFound is returned when an operation names a channel
	// that is not registered on the connection.
	ErrChannelNotFound = errors.New("synapse: channel not found")
)

// Connection is the protocol engine for one transport stream. It frames
// and writes channel messages, and once Run is called, reads frames from
// the peer and dispatches them to its handlers.
type Connection struct {
	t   io.ReadWriteCloser
	enc *frame.Encoder
	dec *frame.Decoder

	// createMu serializes local channel creation and deletion so a name
	// is announced to the peer at most once.
	createMu sync.Mutex

	chanMu sync.RWMutex
	chans  map[string]Channel

	handlers handlerTable
	registry *codec.Registry
	log      *zap.Logger

	runOnce  sync.Once
	disposed atomic.Bool
	done     chan struct{}
	err      error
}

// New returns a connection over the given transport. The connection owns
// t and closes it on disposal. If t has a Flush() error method it is
// called after every frame. Call Run to start reading from the peer.
func New(t io.ReadWriteCloser, opts ...Option) *Connection {
	c := &Connection{
		t:     t,
		enc:   frame.NewEncoder(t),
		dec:   frame.NewDecoder(t),
		chans: make(map[string]Channel),
		done:  make(chan struct{}),
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = codec.NewRegistry()
	}
	return c
}

// Registry returns the serializer registry used for typed payloads.
func (c *Connection) Registry() *codec.Registry {
	return c.registry
}

// Run starts the read loop. Only the first call has an effect; a
// connection whose loop has stopped cannot be restarted.
func (c *Connection) Run() {
	c.runOnce.Do(func() {
		go c.loop()
	})
}

// Disposed reports whether the connection has been disposed.
func (c *Connection) Disposed() bool {
	return c.disposed.Load()
}

// Done returns a channel that is closed when the connection is disposed.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the connection is disposed, and returns the read loop
// error that caused it, or nil if it was closed with Close.
func (c *Connection) Wait() error {
	<-c.done
	return c.err
}

// Close disposes the connection and closes the underlying transport.
// It is safe to call more than once.
func (c *Connection) Close() error {
	return c.dispose(nil)
}

func (c *Connection) dispose(cause error) error {
	if !c.disposed.CompareAndSwap(false, true) {
		return nil
	}
	c.err = cause
	close(c.done)
	err := c.t.Close()
	connectionsDisposed.Inc()
	c.log.Debug("connection disposed", zap.Error(cause))
	c.emitDisposed(Disposed{Connection: c, Err: cause})
	return err
}

// Channel returns the registered channel with the given name.
func (c *Connection) Channel(name string) (Channel, bool) {
	c.chanMu.RLock()
	defer c.chanMu.RUnlock()
	ch, ok := c.chans[name]
	return ch, ok
}

// Channels returns the registered channels sorted by name.
func (c *Connection) Channels() []Channel {
	c.chanMu.RLock()
	chans := make([]Channel, 0, len(c.chans))
	for _, ch := range c.chans {
		chans = append(chans, ch)
	}
	c.chanMu.RUnlock()
	sort.Slice(chans, func(i, j int) bool {
		return chans[i].name < chans[j].name
	})
	return chans
}

// CreateChannel registers a channel and announces it to the peer. If the
// channel already exists it is returned without writing anything. The
// peer does not acknowledge creation.
func (c *Connection) CreateChannel(name string) (Channel, error) {
	if c.Disposed() {
		return Channel{}, ErrDisposed
	}

	c.createMu.Lock()
	defer c.createMu.Unlock()

	if ch, ok := c.Channel(name); ok {
		return ch, nil
	}

	if err := c.send(frame.CreateChannelMessage{Name: name}); err != nil {
		return Channel{}, err
	}

	ch, added := c.addChannel(name)
	if added {
		c.emitCreated(ChannelCreated{Channel: ch, Connection: c})
	}
	return ch, nil
}

// DeleteChannel removes a channel locally and tells the peer to remove it.
func (c *Connection) DeleteChannel(name string) error {
	if c.Disposed() {
		return ErrDisposed
	}

	c.createMu.Lock()
	defer c.createMu.Unlock()

	if _, ok := c.Channel(name); !ok {
		return fmt.Errorf("%w: %q", ErrChannelNotFound, name)
	}

	if err := c.send(frame.DeleteChannelMessage{Name: name}); err != nil {
		return err
	}

	if ch, removed := c.removeChannel(name); removed {
		c.emitDeleted(ChannelDeleted{Channel: ch, Connection: c})
	}
	return nil
}

// SendBytes sends a raw payload on the named channel. An empty payload is
// a no-op, and so is a send on a channel that is not registered.
func (c *Connection) SendBytes(name string, data []byte) error {
	if c.Disposed() {
		return ErrDisposed
	}
	if len(data) == 0 {
		return nil
	}
	if _, ok := c.Channel(name); !ok {
		c.log.Debug("dropping bytes for unknown channel", zap.String("channel", name))
		return nil
	}
	return c.send(frame.ByteDataMessage{Name: name, Data: data})
}

// SendTyped serializes v with the first matching registry entry and sends
// it on the named channel along with the entry's tag.
func (c *Connection) SendTyped(name string, v any) error {
	if c.Disposed() {
		return ErrDisposed
	}
	if _, ok := c.Channel(name); !ok {
		return fmt.Errorf("%w: %q", ErrChannelNotFound, name)
	}
	tag, data, err := c.registry.Encode(v)
	if err != nil {
		return err
	}
	return c.send(frame.ObjectDataMessage{Name: name, Tag: tag, Data: data})
}

// Ping writes a frame the peer reads and discards.
func (c *Connection) Ping() error {
	if c.Disposed() {
		return ErrDisposed
	}
	return c.send(frame.MeaninglessMessage{})
}

func (c *Connection) send(msg frame.Message) error {
	if err := c.enc.Encode(msg); err != nil {
		if c.Disposed() {
			return ErrDisposed
		}
		return fmt.Errorf("synapse: write %s: %w", frame.TypeName(frame.Type(msg)), err)
	}
	framesEncoded.WithLabelValues(frame.TypeName(frame.Type(msg))).Inc()
	return nil
}

func (c *Connection) addChannel(name string) (Channel, bool) {
	c.chanMu.Lock()
	defer c.chanMu.Unlock()
	if ch, ok := c.chans[name]; ok {
		return ch, false
	}
	ch := Channel{conn: c, name: name}
	c.chans[name] = ch
	return ch, true
}

func (c *Connection) removeChannel(name string) (Channel, bool) {
	c.chanMu.Lock()
	defer c.chanMu.Unlock()
	ch, ok := c.chans[name]
	if ok {
		delete(c.chans, name)
	}
	return ch, ok
}

// loop runs the connection machine. It will process frames until an
// error is encountered, then dispose the connection. To synchronize on
// loop exit, use Wait.
func (c *Connection) loop() {
	var err error
	for err == nil {
		err = c.onePacket()
	}
	if c.Disposed() {
		// closed locally; the read error is a consequence
		return
	}
	c.log.Debug("read loop stopped", zap.Error(err))
	c.dispose(err)
}

// onePacket reads and processes one frame.
func (c *Connection) onePacket() (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("synapse: handler panic: %v", p)
		}
	}()

	msg, err := c.dec.Decode()
	if err != nil {
		return err
	}
	if c.Disposed() {
		return ErrDisposed
	}
	framesDecoded.WithLabelValues(frame.TypeName(frame.Type(msg))).Inc()

	switch m := msg.(type) {
	case *frame.CreateChannelMessage:
		if ch, added := c.addChannel(m.Name); added {
			c.emitCreated(ChannelCreated{Channel: ch, Connection: c})
		}

	case *frame.DeleteChannelMessage:
		if ch, removed := c.removeChannel(m.Name); removed {
			c.emitDeleted(ChannelDeleted{Channel: ch, Connection: c})
		}

	case *frame.ByteDataMessage:
		ch, ok := c.Channel(m.Name)
		if !ok {
			c.log.Debug("bytes for unknown channel", zap.String("channel", m.Name))
			return nil
		}
		c.emitBytes(BytesReceived{Channel: ch, Connection: c, Data: m.Data})

	case *frame.ObjectDataMessage:
		v, err := c.registry.Decode(m.Tag, m.Data)
		if err != nil {
			return err
		}
		ch, ok := c.Channel(m.Name)
		if !ok {
			c.log.Debug("object for unknown channel", zap.String("channel", m.Name))
			return nil
		}
		c.emitObject(ObjectReceived{Channel: ch, Connection: c, Tag: m.Tag, Value: v})

	case *frame.MeaninglessMessage:
	}
	return nil
}

package mux

import (
	"sync"

	"github.com/rs/xid"
)

// ChannelCreated is raised when a channel is registered, either by a local
// CreateChannel call or by a CreateChannel frame from the peer.
type ChannelCreated struct {
	Channel    Channel
	Connection *Connection
}

// ChannelDeleted is raised when a channel is removed locally or by the peer.
type ChannelDeleted struct {
	Channel    Channel
	Connection *Connection
}

// BytesReceived carries a raw payload received on a channel.
type BytesReceived struct {
	Channel    Channel
	Connection *Connection
	Data       []byte
}

// ObjectReceived carries a decoded typed payload received on a channel.
type ObjectReceived struct {
	Channel    Channel
	Connection *Connection
	Tag        string
	Value      any
}

// Disposed is raised once when the connection is disposed. Err is the
// read loop error that caused it, or nil if the connection was closed.
type Disposed struct {
	Connection *Connection
	Err        error
}

// Handler receives connection events. Events are delivered synchronously
// on the goroutine that produced them: the read loop for frames from the
// peer, the caller for local channel creation and deletion.
type Handler interface {
	OnChannelCreated(ChannelCreated)
	OnChannelDeleted(ChannelDeleted)
	OnBytesReceived(BytesReceived)
	OnObjectReceived(ObjectReceived)
	OnDisposed(Disposed)
}

// HandlerFuncs is a Handler built from optional functions. Nil fields
// ignore the event.
type HandlerFuncs struct {
	Created  func(ChannelCreated)
	Deleted  func(ChannelDeleted)
	Bytes    func(BytesReceived)
	Object   func(ObjectReceived)
	Disposed func(Disposed)
}

func (h HandlerFuncs) OnChannelCreated(e ChannelCreated) {
	if h.Created != nil {
		h.Created(e)
	}
}

func (h HandlerFuncs) OnChannelDeleted(e ChannelDeleted) {
	if h.Deleted != nil {
		h.Deleted(e)
	}
}

func (h HandlerFuncs) OnBytesReceived(e BytesReceived) {
	if h.Bytes != nil {
		h.Bytes(e)
	}
}

func (h HandlerFuncs) OnObjectReceived(e ObjectReceived) {
	if h.Object != nil {
		h.Object(e)
	}
}

func (h HandlerFuncs) OnDisposed(e Disposed) {
	if h.Disposed != nil {
		h.Disposed(e)
	}
}

// handlerTable keeps handlers by key in registration order.
type handlerTable struct {
	mu   sync.RWMutex
	keys []string
	m    map[string]Handler
}

func (t *handlerTable) add(key string, h Handler) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.m == nil {
		t.m = make(map[string]Handler)
	}
	if _, exists := t.m[key]; exists {
		return false
	}
	t.m[key] = h
	t.keys = append(t.keys, key)
	return true
}

func (t *handlerTable) remove(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.m[key]; !exists {
		return false
	}
	delete(t.m, key)
	for i, k := range t.keys {
		if k == key {
			t.keys = append(t.keys[:i:i], t.keys[i+1:]...)
			break
		}
	}
	return true
}

func (t *handlerTable) snapshot() []Handler {
	t.mu.RLock()
	defer t.mu.RUnlock()
	hs := make([]Handler, 0, len(t.keys))
	for _, k := range t.keys {
		hs = append(hs, t.m[k])
	}
	return hs
}

// Subscription is a handler registration. Closing it removes the handler.
type Subscription struct {
	key  string
	conn *Connection
	once sync.Once
}

// Key returns the handler key of the subscription.
func (s *Subscription) Key() string {
	return s.key
}

// Close removes the handler. It is safe to call more than once.
func (s *Subscription) Close() error {
	s.once.Do(func() {
		s.conn.RemoveHandler(s.key)
	})
	return nil
}

// AddHandler registers h under key. If key is already registered the call
// does nothing and returns false.
func (c *Connection) AddHandler(key string, h Handler) bool {
	return c.handlers.add(key, h)
}

// RemoveHandler removes the handler registered under key.
func (c *Connection) RemoveHandler(key string) bool {
	return c.handlers.remove(key)
}

// Subscribe registers h under a fresh key and returns the subscription.
func (c *Connection) Subscribe(h Handler) *Subscription {
	key := xid.New().String()
	c.handlers.add(key, h)
	return &Subscription{key: key, conn: c}
}

func (c *Connection) emitCreated(e ChannelCreated) {
	for _, h := range c.handlers.snapshot() {
		h.OnChannelCreated(e)
	}
}

func (c *Connection) emitDeleted(e ChannelDeleted) {
	for _, h := range c.handlers.snapshot() {
		h.OnChannelDeleted(e)
	}
}

func (c *Connection) emitBytes(e BytesReceived) {
	for _, h := range c.handlers.snapshot() {
		h.OnBytesReceived(e)
	}
}

func (c *Connection) emitObject(e ObjectReceived) {
	for _, h := range c.handlers.snapshot() {
		h.OnObjectReceived(e)
	}
}

func (c *Connection) emitDisposed(e Disposed) {
	for _, h := range c.handlers.snapshot() {
		h.OnDisposed(e)
	}
}

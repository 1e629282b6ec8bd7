package mux

import "fmt"

// Channel is a named logical stream on a Connection. It is a small
// comparable value: two Channels are equal when they name the same
// channel on the same Connection, so it can be used as a map key.
//
// A Channel stays usable after it is deleted, but is inert: typed sends
// fail with ErrChannelNotFound and byte sends are dropped.
type Channel struct {
	conn *Connection
	name string
}

// Name returns the channel name.
func (ch Channel) Name() string {
	return ch.name
}

// Connection returns the connection the channel belongs to.
func (ch Channel) Connection() *Connection {
	return ch.conn
}

// SendBytes sends a raw payload on the channel.
func (ch Channel) SendBytes(data []byte) error {
	return ch.conn.SendBytes(ch.name, data)
}

// SendTyped sends v on the channel using the connection's serializer registry.
func (ch Channel) SendTyped(v any) error {
	return ch.conn.SendTyped(ch.name, v)
}

// Delete removes the channel on both ends.
func (ch Channel) Delete() error {
	return ch.conn.DeleteChannel(ch.name)
}

func (ch Channel) String() string {
	return fmt.Sprintf("channel(%s)", ch.name)
}

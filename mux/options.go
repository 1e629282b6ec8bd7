package mux

import (
	"go.uber.org/zap"

	"github.com/progrium/synapse-go/codec"
)

// Option configures a Connection.
type Option func(*Connection)

// WithLogger sets the logger used by the connection.
func WithLogger(l *zap.Logger) Option {
	return func(c *Connection) {
		if l != nil {
			c.log = l
		}
	}
}

// WithRegistry shares a serializer registry with the connection instead
// of giving it a fresh one.
func WithRegistry(r *codec.Registry) Option {
	return func(c *Connection) {
		c.registry = r
	}
}

// WithHandler registers h under key before the connection is returned.
func WithHandler(key string, h Handler) Option {
	return func(c *Connection) {
		c.AddHandler(key, h)
	}
}

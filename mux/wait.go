package mux

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrWaitCanceled is returned by WaitFor when its context ends before a
// value arrives. The context error is wrapped alongside it.
var ErrWaitCanceled = errors.New("synapse: wait canceled")

// WaitFor blocks until a value of dynamic type T arrives on the named
// channel and returns it. Values of other types and values on other
// channels are ignored. It returns ErrWaitCanceled if ctx ends first and
// ErrDisposed if the connection is disposed while waiting.
func WaitFor[T any](ctx context.Context, c *Connection, name string) (T, error) {
	var zero T
	if c.Disposed() {
		return zero, ErrDisposed
	}
	if _, ok := c.Channel(name); !ok {
		return zero, fmt.Errorf("%w: %q", ErrChannelNotFound, name)
	}

	found := make(chan T, 1)
	sub := c.Subscribe(HandlerFuncs{
		Object: func(e ObjectReceived) {
			if e.Channel.Name() != name {
				return
			}
			v, ok := e.Value.(T)
			if !ok {
				return
			}
			select {
			case found <- v:
			default:
			}
		},
	})
	defer sub.Close()

	select {
	case v := <-found:
		return v, nil
	case <-ctx.Done():
		return zero, fmt.Errorf("%w: %w", ErrWaitCanceled, ctx.Err())
	case <-c.Done():
		return zero, ErrDisposed
	}
}

// WaitForTimeout is WaitFor bounded by timeout.
func WaitForTimeout[T any](c *Connection, name string, timeout time.Duration) (T, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return WaitFor[T](ctx, c, name)
}

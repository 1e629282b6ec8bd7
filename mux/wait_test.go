package mux

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/progrium/synapse-go/codec"
)

type greeting struct {
	Text string
}

func typedPair(t *testing.T) (*Connection, *Connection) {
	reg := codec.NewRegistry()
	codec.RegisterType[greeting](reg, "greeting", codec.JSONCodec{})
	codec.RegisterType[int](reg, "int", codec.JSONCodec{})
	return newPair(t, WithRegistry(reg))
}

func TestWaitFor(t *testing.T) {
	a, b := typedPair(t)
	rb := record(b)

	_, err := a.CreateChannel("main")
	fatal(err, t)
	recv(t, rb.created)

	go func() {
		time.Sleep(20 * time.Millisecond)
		a.SendTyped("main", 42)
		a.SendTyped("main", greeting{Text: "hello"})
	}()

	got, err := WaitForTimeout[greeting](b, "main", 2*time.Second)
	fatal(err, t)
	require.Equal(t, greeting{Text: "hello"}, got)
	require.Len(t, b.handlers.snapshot(), 1)
}

func TestWaitForIgnoresOtherChannels(t *testing.T) {
	a, b := typedPair(t)
	rb := record(b)

	for _, name := range []string{"main", "side"} {
		_, err := a.CreateChannel(name)
		fatal(err, t)
		recv(t, rb.created)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		a.SendTyped("side", greeting{Text: "wrong"})
		a.SendTyped("main", greeting{Text: "right"})
	}()

	got, err := WaitForTimeout[greeting](b, "main", 2*time.Second)
	fatal(err, t)
	require.Equal(t, "right", got.Text)
}

func TestWaitForTimeout(t *testing.T) {
	a, b := typedPair(t)
	rb := record(b)

	_, err := a.CreateChannel("main")
	fatal(err, t)
	recv(t, rb.created)

	start := time.Now()
	_, err = WaitForTimeout[greeting](b, "main", 50*time.Millisecond)
	require.ErrorIs(t, err, ErrWaitCanceled)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	// the waiter's handler is gone; only the recorder remains
	require.Len(t, b.handlers.snapshot(), 1)
}

func TestWaitForCanceled(t *testing.T) {
	a, _ := typedPair(t)
	_, err := a.CreateChannel("main")
	fatal(err, t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = WaitFor[greeting](ctx, a, "main")
	require.ErrorIs(t, err, ErrWaitCanceled)
	require.ErrorIs(t, err, context.Canceled)
}

func TestWaitForDisposed(t *testing.T) {
	a, b := typedPair(t)
	rb := record(b)

	_, err := a.CreateChannel("main")
	fatal(err, t)
	recv(t, rb.created)

	go func() {
		time.Sleep(20 * time.Millisecond)
		b.Close()
	}()

	_, err = WaitForTimeout[greeting](b, "main", 2*time.Second)
	require.ErrorIs(t, err, ErrDisposed)

	_, err = WaitForTimeout[greeting](b, "main", time.Second)
	require.ErrorIs(t, err, ErrDisposed)
}

func TestWaitForUnknownChannel(t *testing.T) {
	a, _ := typedPair(t)
	_, err := WaitForTimeout[greeting](a, "nope", time.Second)
	require.ErrorIs(t, err, ErrChannelNotFound)
}

package main

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/progrium/clon-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/progrium/synapse-go/mux"
	"github.com/progrium/synapse-go/transport"
)

func TestServeConnEchoes(t *testing.T) {
	l, err := transport.ListenTCP("127.0.0.1:0", mux.WithRegistry(newRegistry()))
	require.NoError(t, err)
	defer l.Close()
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		serveConn(conn, zap.NewNop())
	}()

	conn, err := transport.DialTCP(l.Addr().String(), mux.WithRegistry(newRegistry()))
	require.NoError(t, err)
	defer conn.Close()
	got := make(chan any, 2)
	conn.Subscribe(mux.HandlerFuncs{
		Bytes:  func(e mux.BytesReceived) { got <- string(e.Data) },
		Object: func(e mux.ObjectReceived) { got <- e.Value },
	})
	conn.Run()

	ch, err := conn.CreateChannel("echo")
	require.NoError(t, err)

	require.NoError(t, ch.SendBytes([]byte("raw")))
	require.Equal(t, "raw", wait(t, got))

	value, err := clon.Parse([]string{"name=alice"})
	require.NoError(t, err)
	require.NoError(t, ch.SendTyped(value))

	b, err := json.Marshal(value)
	require.NoError(t, err)
	var want any
	require.NoError(t, json.Unmarshal(b, &want))
	require.Equal(t, want, wait(t, got))
}

func wait(t *testing.T, ch <-chan any) any {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
		return nil
	}
}

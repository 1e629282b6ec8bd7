package udp

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/progrium/synapse-go/mux"
)

func fatal(err error, t *testing.T) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func listenDemux(t *testing.T, opts ...Option) *Demux {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	fatal(err, t)
	d := NewDemux(conn, opts...)
	t.Cleanup(func() { d.Close() })
	return d
}

func dialDemux(t *testing.T, d *Demux) *net.UDPConn {
	t.Helper()
	conn, err := net.DialUDP("udp", nil, d.LocalAddr().(*net.UDPAddr))
	fatal(err, t)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestDemuxNewPeer(t *testing.T) {
	d := listenDemux(t, WithWorkers(1))

	var events atomic.Int32
	sub := d.OnPeer(func(NewPeerEvent) { events.Add(1) })
	defer sub.Close()

	client := dialDemux(t, d)
	_, err := client.Write([]byte("ab"))
	fatal(err, t)
	_, err = client.Write([]byte("cd"))
	fatal(err, t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	p, err := d.Accept(ctx)
	fatal(err, t)
	require.Equal(t, client.LocalAddr().String(), p.RemoteAddr().String())

	buf := make([]byte, 4)
	_, err = p.Read(buf)
	fatal(err, t)
	require.Equal(t, "abcd", string(buf))

	require.Equal(t, int32(1), events.Load())
	require.Len(t, d.Peers(), 1)
	found, ok := d.Peer(client.LocalAddr())
	require.True(t, ok)
	require.Same(t, p, found)
}

func TestDemuxPeersAreSeparate(t *testing.T) {
	d := listenDemux(t)
	c1 := dialDemux(t, d)
	c2 := dialDemux(t, d)

	_, err := c1.Write([]byte("one"))
	fatal(err, t)
	_, err = c2.Write([]byte("two"))
	fatal(err, t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	got := map[string]string{}
	for i := 0; i < 2; i++ {
		p, err := d.Accept(ctx)
		fatal(err, t)
		buf := make([]byte, 3)
		_, err = p.Read(buf)
		fatal(err, t)
		got[p.RemoteAddr().String()] = string(buf)
	}
	require.Equal(t, map[string]string{
		c1.LocalAddr().String(): "one",
		c2.LocalAddr().String(): "two",
	}, got)
}

func TestPeerStreamReply(t *testing.T) {
	d := listenDemux(t)
	client := dialDemux(t, d)
	_, err := client.Write([]byte("hi"))
	fatal(err, t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	p, err := d.Accept(ctx)
	fatal(err, t)

	_, err = p.Write([]byte("hel"))
	fatal(err, t)
	_, err = p.Write([]byte("lo"))
	fatal(err, t)
	fatal(p.Flush(), t)

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 64)
	n, err := client.Read(buf)
	fatal(err, t)
	require.Equal(t, "hello", string(buf[:n]))

	fatal(p.Close(), t)
	_, err = p.Write([]byte("x"))
	require.ErrorIs(t, err, ErrClosed)
}

func TestSetWorkers(t *testing.T) {
	d := listenDemux(t)
	require.Equal(t, DefaultWorkers, d.Workers())

	require.Error(t, d.SetWorkers(0))
	require.Error(t, d.SetWorkers(-1))
	require.Equal(t, DefaultWorkers, d.Workers())

	fatal(d.SetWorkers(8), t)
	require.Equal(t, 8, d.Workers())
	fatal(d.SetWorkers(2), t)
	require.Equal(t, 2, d.Workers())
}

func TestDemuxClose(t *testing.T) {
	d := listenDemux(t, WithPollInterval(5*time.Millisecond))

	errs := make(chan error, 1)
	go func() {
		_, err := d.Accept(context.Background())
		errs <- err
	}()

	fatal(d.Close(), t)
	fatal(d.Close(), t)
	require.ErrorIs(t, <-errs, ErrClosed)
	require.ErrorIs(t, d.SetWorkers(1), ErrClosed)
	require.Equal(t, 0, d.Workers())
}

func TestConnectionOverUDP(t *testing.T) {
	l, err := Listen("127.0.0.1:0", WithWorkers(1))
	fatal(err, t)
	defer l.Close()

	stream, err := Dial(l.Addr().String())
	fatal(err, t)
	client := mux.New(stream)
	received := make(chan []byte, 1)
	client.Subscribe(mux.HandlerFuncs{
		Bytes: func(e mux.BytesReceived) { received <- e.Data },
	})
	client.Run()
	defer client.Close()

	_, err = client.CreateChannel("master")
	fatal(err, t)

	server, err := l.Accept()
	fatal(err, t)
	created := make(chan mux.Channel, 1)
	server.Subscribe(mux.HandlerFuncs{
		Created: func(e mux.ChannelCreated) { created <- e.Channel },
	})
	server.Run()
	defer server.Close()

	var ch mux.Channel
	select {
	case ch = <-created:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for channel")
	}
	require.Equal(t, "master", ch.Name())
	fatal(ch.SendBytes([]byte{1, 2, 3, 4}), t)

	select {
	case data := <-received:
		require.Equal(t, []byte{1, 2, 3, 4}, data)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for bytes")
	}
}

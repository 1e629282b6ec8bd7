package transport

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"io"
	"math/big"
	"path/filepath"
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

// echo answers every byte payload on the same channel.
func echo(conn *mux.Connection) {
	conn.Subscribe(mux.HandlerFuncs{
		Bytes: func(e mux.BytesReceived) {
			e.Channel.SendBytes(e.Data)
		},
	})
	conn.Run()
}

func serveEcho(t *testing.T, l Listener) {
	t.Helper()
	t.Cleanup(func() { l.Close() })
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			echo(conn)
		}
	}()
}

// roundTrip creates a channel, sends a payload and waits for the echo.
func roundTrip(t *testing.T, conn *mux.Connection) {
	t.Helper()
	defer conn.Close()
	received := make(chan []byte, 1)
	conn.Subscribe(mux.HandlerFuncs{
		Bytes: func(e mux.BytesReceived) { received <- e.Data },
	})
	conn.Run()

	ch, err := conn.CreateChannel("master")
	fatal(err, t)
	fatal(ch.SendBytes([]byte{1, 2, 3, 4}), t)

	select {
	case data := <-received:
		require.Equal(t, []byte{1, 2, 3, 4}, data)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for echo")
	}
}

func TestTCP(t *testing.T) {
	l, err := ListenTCP("127.0.0.1:0")
	fatal(err, t)
	serveEcho(t, l)

	conn, err := DialTCP(l.Addr().String())
	fatal(err, t)
	roundTrip(t, conn)
}

func TestUnix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synapse.sock")
	l, err := ListenUnix(path)
	fatal(err, t)
	serveEcho(t, l)

	conn, err := DialUnix(path)
	fatal(err, t)
	roundTrip(t, conn)
}

func TestWS(t *testing.T) {
	l, err := ListenWS("127.0.0.1:0")
	fatal(err, t)
	serveEcho(t, l)

	conn, err := DialWS(l.Addr().String())
	fatal(err, t)
	roundTrip(t, conn)
}

func TestUDP(t *testing.T) {
	l, err := ListenUDP("127.0.0.1:0")
	fatal(err, t)
	serveEcho(t, l)

	conn, err := DialUDP(l.Addr().String())
	fatal(err, t)
	roundTrip(t, conn)
}

func TestIO(t *testing.T) {
	serverIn, clientOut := io.Pipe()
	clientIn, serverOut := io.Pipe()

	l := ListenIO(serverOut, serverIn)
	serveEcho(t, l)

	conn, err := DialIO(clientOut, clientIn)
	fatal(err, t)
	roundTrip(t, conn)
}

func TestNetListenerClose(t *testing.T) {
	l, err := ListenTCP("127.0.0.1:0")
	fatal(err, t)
	fatal(l.Close(), t)
	_, err = l.Accept()
	require.Error(t, err)
}

func generateTLSConfig() *tls.Config {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic(err)
	}
	template := x509.Certificate{SerialNumber: big.NewInt(1)}
	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		panic(err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})

	tlsCert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		panic(err)
	}
	return &tls.Config{Certificates: []tls.Certificate{tlsCert}}
}

func TestQUIC(t *testing.T) {
	l, err := ListenQUIC("127.0.0.1:0", generateTLSConfig())
	fatal(err, t)
	serveEcho(t, l)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	conn, err := DialQUIC(ctx, l.Addr().String(), &tls.Config{InsecureSkipVerify: true})
	fatal(err, t)
	roundTrip(t, conn)
}

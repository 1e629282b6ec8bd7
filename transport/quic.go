package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"

	"github.com/quic-go/quic-go"
	"go.uber.org/multierr"

	"github.com/progrium/synapse-go/mux"
)

// QUICProtocol is the ALPN protocol name negotiated by DialQUIC and
// ListenQUIC when the TLS config names none.
const QUICProtocol = "synapse-quic"

// quicHeader is written by the dialer so the listener sees the stream
// before the first frame.
var quicHeader = []byte{'!'}

// quicStream carries a connection over the single bidirectional stream of
// a QUIC connection. Closing it closes the QUIC connection.
type quicStream struct {
	conn   quic.Connection
	stream quic.Stream
}

func (s *quicStream) Read(p []byte) (int, error) {
	return s.stream.Read(p)
}

func (s *quicStream) Write(p []byte) (int, error) {
	return s.stream.Write(p)
}

func (s *quicStream) Close() error {
	s.stream.CancelRead(0)
	return multierr.Combine(
		s.stream.Close(),
		s.conn.CloseWithError(0, "close connection"),
	)
}

func withProtocol(conf *tls.Config) *tls.Config {
	if conf == nil {
		conf = &tls.Config{}
	}
	if len(conf.NextProtos) == 0 {
		conf = conf.Clone()
		conf.NextProtos = []string{QUICProtocol}
	}
	return conf
}

// DialQUIC connects to a QUIC listener and opens the stream the
// connection runs over.
func DialQUIC(ctx context.Context, addr string, tlsConf *tls.Config, opts ...mux.Option) (*mux.Connection, error) {
	conn, err := quic.DialAddr(ctx, addr, withProtocol(tlsConf), nil)
	if err != nil {
		return nil, err
	}
	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		conn.CloseWithError(0, "open stream")
		return nil, err
	}
	if _, err := stream.Write(quicHeader); err != nil {
		conn.CloseWithError(0, "write header")
		return nil, err
	}
	return mux.New(NewNetStream(&quicStream{conn: conn, stream: stream}), opts...), nil
}

// QUICListener accepts QUIC connections.
type QUICListener struct {
	l    *quic.Listener
	opts []mux.Option
	ctx  context.Context
	stop context.CancelFunc
}

// ListenQUIC listens for QUIC connections on a UDP address. tlsConf must
// carry a certificate.
func ListenQUIC(addr string, tlsConf *tls.Config, opts ...mux.Option) (*QUICListener, error) {
	l, err := quic.ListenAddr(addr, withProtocol(tlsConf), nil)
	if err != nil {
		return nil, err
	}
	ctx, stop := context.WithCancel(context.Background())
	return &QUICListener{l: l, opts: opts, ctx: ctx, stop: stop}, nil
}

// Accept waits for a QUIC connection and its stream.
func (l *QUICListener) Accept() (*mux.Connection, error) {
	conn, err := l.l.Accept(l.ctx)
	if err != nil {
		if l.ctx.Err() != nil {
			return nil, io.EOF
		}
		return nil, err
	}
	stream, err := conn.AcceptStream(l.ctx)
	if err != nil {
		conn.CloseWithError(0, "accept stream")
		return nil, err
	}
	header := make([]byte, len(quicHeader))
	if _, err := io.ReadFull(stream, header); err != nil {
		conn.CloseWithError(0, "read header")
		return nil, err
	}
	if header[0] != quicHeader[0] {
		conn.CloseWithError(0, "bad header")
		return nil, fmt.Errorf("quic: unexpected stream header %q", header)
	}
	return mux.New(NewNetStream(&quicStream{conn: conn, stream: stream}), l.opts...), nil
}

// Close closes the listener.
// Any blocked Accept operations will be unblocked and return errors.
func (l *QUICListener) Close() error {
	l.stop()
	return l.l.Close()
}

func (l *QUICListener) Addr() net.Addr {
	return l.l.Addr()
}

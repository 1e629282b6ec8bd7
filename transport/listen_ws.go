package transport

import (
	"errors"
	"net"
	"net/http"

	"golang.org/x/net/websocket"

	"github.com/progrium/synapse-go/mux"
)

// HandleWS wraps a WebSocket connection and sends it to l to be accepted.
// It returns once the connection is disposed.
func HandleWS(l *NetListener, ws *websocket.Conn) {
	ws.PayloadType = websocket.BinaryFrame
	conn := mux.New(NewNetStream(ws), l.opts...)
	defer conn.Close()
	if !l.offer(conn) {
		return
	}
	<-conn.Done()
}

// ListenWS takes a TCP address and returns a NetListener with an
// HTTP+WebSocket server listening on it.
func ListenWS(addr string, opts ...mux.Option) (*NetListener, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	nl := newNetListener(l, opts)
	s := &http.Server{
		Handler: websocket.Handler(func(ws *websocket.Conn) {
			HandleWS(nl, ws)
		}),
	}
	go func() {
		if err := s.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			nl.fail(err)
		}
	}()
	return nl, nil
}

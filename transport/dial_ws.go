package transport

import (
	"fmt"

	"golang.org/x/net/websocket"

	"github.com/progrium/synapse-go/mux"
)

// DialWS connects via WebSocket. The address must be a host and port.
// Opening a WebSocket connection at a particular path is not supported.
func DialWS(addr string, opts ...mux.Option) (*mux.Connection, error) {
	ws, err := websocket.Dial(fmt.Sprintf("ws://%s/", addr), "", fmt.Sprintf("http://%s/", addr))
	if err != nil {
		return nil, err
	}
	ws.PayloadType = websocket.BinaryFrame
	return mux.New(NewNetStream(ws), opts...), nil
}

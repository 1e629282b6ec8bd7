package talk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/progrium/synapse-go/codec"
	"github.com/progrium/synapse-go/mux"
)

type hello struct {
	From string
}

func TestDialAndListen(t *testing.T) {
	for _, name := range []string{"tcp", "ws", "udp"} {
		t.Run(name, func(t *testing.T) {
			reg := codec.NewRegistry()
			codec.RegisterType[hello](reg, "hello", codec.JSONCodec{})

			l, err := ListenOn(name, "127.0.0.1:0", mux.WithRegistry(reg))
			require.NoError(t, err)
			defer l.Close()

			go func() {
				conn, err := l.Accept()
				if err != nil {
					return
				}
				conn.Subscribe(mux.HandlerFuncs{
					Created: func(e mux.ChannelCreated) {
						e.Channel.SendTyped(hello{From: "server"})
					},
				})
				conn.Run()
			}()

			conn, err := Dial(name, l.Addr().String(), mux.WithRegistry(reg))
			require.NoError(t, err)
			defer conn.Close()
			replies := make(chan any, 1)
			conn.Subscribe(mux.HandlerFuncs{
				Object: func(e mux.ObjectReceived) { replies <- e.Value },
			})
			conn.Run()

			_, err = conn.CreateChannel("greet")
			require.NoError(t, err)
			select {
			case v := <-replies:
				require.Equal(t, hello{From: "server"}, v)
			case <-time.After(3 * time.Second):
				t.Fatal("timed out waiting for reply")
			}
		})
	}
}

func TestUnknownTransport(t *testing.T) {
	_, err := Dial("carrier-pigeon", "")
	require.Error(t, err)
	_, err = ListenOn("carrier-pigeon", "")
	require.Error(t, err)
	require.Contains(t, Transports(), "quic")
}

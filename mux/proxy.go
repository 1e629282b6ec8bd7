package mux

import (
	"errors"

	"go.uber.org/zap"
)

// Proxy mirrors the channel activity of src onto dst: channels created or
// deleted on src are created or deleted on dst, and byte and typed
// payloads received on src are sent on the same channel of dst. Typed
// payloads are re-encoded with dst's registry. Calling Proxy in both
// directions bridges two connections. The mirror stops when the returned
// subscription is closed.
func Proxy(dst, src *Connection) *Subscription {
	return src.Subscribe(HandlerFuncs{
		Created: func(e ChannelCreated) {
			if _, err := dst.CreateChannel(e.Channel.Name()); err != nil {
				src.log.Debug("proxy create", zap.String("channel", e.Channel.Name()), zap.Error(err))
			}
		},
		Deleted: func(e ChannelDeleted) {
			err := dst.DeleteChannel(e.Channel.Name())
			if err != nil && !errors.Is(err, ErrChannelNotFound) {
				src.log.Debug("proxy delete", zap.String("channel", e.Channel.Name()), zap.Error(err))
			}
		},
		Bytes: func(e BytesReceived) {
			if err := dst.SendBytes(e.Channel.Name(), e.Data); err != nil {
				src.log.Debug("proxy bytes", zap.String("channel", e.Channel.Name()), zap.Error(err))
			}
		},
		Object: func(e ObjectReceived) {
			if err := dst.SendTyped(e.Channel.Name(), e.Value); err != nil {
				src.log.Debug("proxy object", zap.String("channel", e.Channel.Name()), zap.Error(err))
			}
		},
	})
}

package udp

import (
	"time"

	"go.uber.org/zap"

	"github.com/progrium/synapse-go/mux"
)

const (
	// DefaultWorkers is the number of receive workers a Demux starts with.
	DefaultWorkers = 4

	// DefaultPollInterval is the read deadline each receive attempt uses.
	DefaultPollInterval = 10 * time.Millisecond

	// DefaultBufferSize is the largest datagram a Demux receives whole.
	DefaultBufferSize = 4096
)

type options struct {
	workers  int
	poll     time.Duration
	bufSize  int
	log      *zap.Logger
	connOpts []mux.Option
}

func defaultOptions() options {
	return options{
		workers: DefaultWorkers,
		poll:    DefaultPollInterval,
		bufSize: DefaultBufferSize,
		log:     zap.NewNop(),
	}
}

// Option configures a Demux or Listener.
type Option func(*options)

// WithWorkers sets the initial number of receive workers. Values below
// one are ignored.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithPollInterval sets how long a worker waits for a datagram before
// checking whether it should stop.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.poll = d
		}
	}
}

// WithBufferSize sets the receive buffer size. Longer datagrams are
// truncated by the socket.
func WithBufferSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.bufSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithConnOptions sets the options a Listener passes to each connection.
func WithConnOptions(opts ...mux.Option) Option {
	return func(o *options) {
		o.connOpts = append(o.connOpts, opts...)
	}
}

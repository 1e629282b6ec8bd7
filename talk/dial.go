// Package talk selects a transport by name, so programs can dial and
// listen on whatever the user configured.
package talk

import (
	"context"
	"crypto/tls"
	"fmt"
	"sort"

	"github.com/progrium/synapse-go/mux"
	"github.com/progrium/synapse-go/transport"
)

// A Dialer connects to addr and returns a connection that is not yet
// running.
type Dialer func(addr string, opts ...mux.Option) (*mux.Connection, error)

// A Listen function binds addr and returns a Listener.
type Listen func(addr string, opts ...mux.Option) (transport.Listener, error)

// TLSConfig is used by the "quic" transport. Listening requires it to
// carry a certificate.
var TLSConfig *tls.Config

// Dialers is map of transport names to Dialers
// and includes all builtin transports.
var Dialers map[string]Dialer

// Listeners is map of transport names to Listen functions
// and includes all builtin transports.
var Listeners map[string]Listen

func init() {
	Dialers = map[string]Dialer{
		"tcp":  transport.DialTCP,
		"unix": transport.DialUnix,
		"ws":   transport.DialWS,
		"udp":  transport.DialUDP,
		"quic": func(addr string, opts ...mux.Option) (*mux.Connection, error) {
			return transport.DialQUIC(context.Background(), addr, TLSConfig, opts...)
		},
		"stdio": func(_ string, opts ...mux.Option) (*mux.Connection, error) {
			return transport.DialStdio(opts...)
		},
	}
	Listeners = map[string]Listen{
		"tcp": func(addr string, opts ...mux.Option) (transport.Listener, error) {
			return netListener(transport.ListenTCP(addr, opts...))
		},
		"unix": func(addr string, opts ...mux.Option) (transport.Listener, error) {
			return netListener(transport.ListenUnix(addr, opts...))
		},
		"ws": func(addr string, opts ...mux.Option) (transport.Listener, error) {
			return netListener(transport.ListenWS(addr, opts...))
		},
		"udp": transport.ListenUDP,
		"quic": func(addr string, opts ...mux.Option) (transport.Listener, error) {
			l, err := transport.ListenQUIC(addr, TLSConfig, opts...)
			if err != nil {
				return nil, err
			}
			return l, nil
		},
		"stdio": func(_ string, opts ...mux.Option) (transport.Listener, error) {
			return transport.ListenStdio(opts...), nil
		},
	}
}

func netListener(l *transport.NetListener, err error) (transport.Listener, error) {
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Transports returns the names of the registered dialers, sorted.
func Transports() []string {
	names := make([]string, 0, len(Dialers))
	for name := range Dialers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dial connects to a remote address using a registered transport.
// In the case of "stdio", the addr can be left an empty string.
func Dial(name, addr string, opts ...mux.Option) (*mux.Connection, error) {
	d, ok := Dialers[name]
	if !ok {
		return nil, fmt.Errorf("transport '%s' not in available in Dialers", name)
	}
	return d(addr, opts...)
}

// ListenOn binds addr using a registered transport.
func ListenOn(name, addr string, opts ...mux.Option) (transport.Listener, error) {
	l, ok := Listeners[name]
	if !ok {
		return nil, fmt.Errorf("transport '%s' not in available in Listeners", name)
	}
	return l(addr, opts...)
}

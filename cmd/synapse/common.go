package main

import (
	"crypto/tls"
	"flag"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/progrium/synapse-go/codec"
	"github.com/progrium/synapse-go/internal/config"
	"github.com/progrium/synapse-go/internal/logging"
	"github.com/progrium/synapse-go/mux"
	"github.com/progrium/synapse-go/talk"
	"github.com/progrium/synapse-go/transport"
	"github.com/progrium/synapse-go/transport/udp"
)

// valueTag is the registry tag for free-form values sent from the command
// line.
const valueTag = "synapse.value"

// commonFlags are shared by every command.
type commonFlags struct {
	config    string
	transport string
	addr      string
	tlsCert   string
	tlsKey    string
	insecure  bool
}

func (f *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.config, "config", "", "Path to a YAML config file.")
	fs.StringVar(&f.transport, "transport", "", "Transport: "+strings.Join(talk.Transports(), ", ")+".")
	fs.StringVar(&f.addr, "addr", "", "Address to listen on or dial.")
	fs.StringVar(&f.tlsCert, "tls-cert", "", "Certificate file for the quic transport.")
	fs.StringVar(&f.tlsKey, "tls-key", "", "Key file for the quic transport.")
	fs.BoolVar(&f.insecure, "insecure", false, "Skip certificate verification when dialing quic.")
}

// load reads configuration and applies flag overrides.
func (f *commonFlags) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(f.config)
	if err != nil {
		return nil, nil, err
	}
	if f.transport != "" {
		cfg.Transport = strings.ToLower(f.transport)
	}
	if f.addr != "" {
		cfg.Address = f.addr
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}

	talk.TLSConfig = &tls.Config{InsecureSkipVerify: f.insecure}
	if f.tlsCert != "" || f.tlsKey != "" {
		cert, err := tls.LoadX509KeyPair(f.tlsCert, f.tlsKey)
		if err != nil {
			return nil, nil, fmt.Errorf("load tls keypair: %w", err)
		}
		talk.TLSConfig.Certificates = []tls.Certificate{cert}
	}
	return cfg, log, nil
}

func newRegistry() *codec.Registry {
	reg := codec.NewRegistry()
	codec.RegisterType[any](reg, valueTag, codec.JSONCodec{})
	return reg
}

func listen(cfg *config.Config, log *zap.Logger, opts ...mux.Option) (transport.Listener, error) {
	if cfg.Transport == "udp" {
		l, err := udp.Listen(cfg.Address,
			udp.WithWorkers(cfg.UDP.Workers),
			udp.WithPollInterval(cfg.UDP.PollInterval),
			udp.WithBufferSize(cfg.UDP.BufferSize),
			udp.WithLogger(log.Named("udp")),
			udp.WithConnOptions(opts...),
		)
		if err != nil {
			return nil, err
		}
		return l, nil
	}
	return talk.ListenOn(cfg.Transport, cfg.Address, opts...)
}

func flagUsage(fs *flag.FlagSet) string {
	var b strings.Builder
	b.WriteString("Options:\n\n")
	fs.VisitAll(func(f *flag.Flag) {
		fmt.Fprintf(&b, "  -%s\n      %s\n\n", f.Name, f.Usage)
	})
	return strings.TrimRight(b.String(), "\n")
}

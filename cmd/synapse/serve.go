package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"

	"github.com/mitchellh/cli"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/progrium/synapse-go/mux"
	"github.com/progrium/synapse-go/transport/udp"
)

func newServe(ui cli.Ui) *serveCmd {
	c := &serveCmd{UI: ui}
	c.flags = flag.NewFlagSet("serve", flag.ContinueOnError)
	c.common.register(c.flags)
	c.flags.StringVar(&c.metrics, "metrics", "", "Address to serve Prometheus metrics on.")
	return c
}

type serveCmd struct {
	UI      cli.Ui
	flags   *flag.FlagSet
	common  commonFlags
	metrics string
}

func (c *serveCmd) Run(args []string) int {
	if err := c.flags.Parse(args); err != nil {
		return 1
	}
	cfg, log, err := c.common.load()
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	defer log.Sync()

	if c.metrics != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(mux.Collectors()...)
		reg.MustRegister(udp.Collectors()...)
		go func() {
			err := http.ListenAndServe(c.metrics, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			log.Error("metrics server stopped", zap.Error(err))
		}()
	}

	l, err := listen(cfg, log, mux.WithRegistry(newRegistry()), mux.WithLogger(log.Named("mux")))
	if err != nil {
		c.UI.Error(fmt.Sprintf("Error listening on %s %s: %s", cfg.Transport, cfg.Address, err))
		return 1
	}
	defer l.Close()
	log.Info("listening", zap.String("transport", cfg.Transport), zap.Any("addr", l.Addr()))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		l.Close()
	}()

	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, udp.ErrClosed) {
				return 0
			}
			log.Error("accept failed", zap.Error(err))
			return 1
		}
		serveConn(conn, log)
	}
}

// serveConn logs every event on conn and echoes payloads back on the
// channel they arrived on.
func serveConn(conn *mux.Connection, log *zap.Logger) {
	conn.Subscribe(mux.HandlerFuncs{
		Created: func(e mux.ChannelCreated) {
			log.Info("channel created", zap.Stringer("channel", e.Channel))
		},
		Deleted: func(e mux.ChannelDeleted) {
			log.Info("channel deleted", zap.Stringer("channel", e.Channel))
		},
		Bytes: func(e mux.BytesReceived) {
			log.Info("bytes received", zap.Stringer("channel", e.Channel), zap.Int("len", len(e.Data)))
			if err := e.Channel.SendBytes(e.Data); err != nil {
				log.Warn("echo failed", zap.Error(err))
			}
		},
		Object: func(e mux.ObjectReceived) {
			log.Info("object received", zap.Stringer("channel", e.Channel), zap.String("tag", e.Tag))
			if err := e.Channel.SendTyped(e.Value); err != nil {
				log.Warn("echo failed", zap.Error(err))
			}
		},
		Disposed: func(e mux.Disposed) {
			log.Info("connection closed", zap.Error(e.Err))
		},
	})
	conn.Run()
}

func (c *serveCmd) Synopsis() string {
	return "Accept connections and echo channel payloads."
}

func (c *serveCmd) Help() string {
	return `
Usage: synapse serve [options]

  Listens on the configured transport and address. Every channel event is
  logged, and bytes and values received on a channel are sent back on it.

` + flagUsage(c.flags)
}

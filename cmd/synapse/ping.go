package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/mitchellh/cli"

	"github.com/progrium/synapse-go/mux"
	"github.com/progrium/synapse-go/talk"
)

const pingChannel = "synapse.ping"

func newPing(ui cli.Ui) *pingCmd {
	c := &pingCmd{UI: ui}
	c.flags = flag.NewFlagSet("ping", flag.ContinueOnError)
	c.common.register(c.flags)
	c.flags.IntVar(&c.count, "count", 3, "Number of round trips.")
	return c
}

type pingCmd struct {
	UI     cli.Ui
	flags  *flag.FlagSet
	common commonFlags
	count  int
}

func (c *pingCmd) Run(args []string) int {
	if err := c.flags.Parse(args); err != nil {
		return 1
	}
	cfg, log, err := c.common.load()
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	defer log.Sync()

	conn, err := talk.Dial(cfg.Transport, cfg.Address, mux.WithLogger(log.Named("mux")))
	if err != nil {
		c.UI.Error(fmt.Sprintf("Error connecting to %s %s: %s", cfg.Transport, cfg.Address, err))
		return 1
	}
	defer conn.Close()

	echoes := make(chan struct{}, 1)
	conn.Subscribe(mux.HandlerFuncs{
		Bytes: func(e mux.BytesReceived) {
			if e.Channel.Name() != pingChannel {
				return
			}
			select {
			case echoes <- struct{}{}:
			default:
			}
		},
	})
	conn.Run()

	if err := conn.Ping(); err != nil {
		c.UI.Error(fmt.Sprintf("Error writing: %s", err))
		return 1
	}
	ch, err := conn.CreateChannel(pingChannel)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	for i := 0; i < c.count; i++ {
		start := time.Now()
		if err := ch.SendBytes([]byte(fmt.Sprintf("ping %d", i))); err != nil {
			c.UI.Error(fmt.Sprintf("Error writing: %s", err))
			return 1
		}
		select {
		case <-echoes:
			c.UI.Output(fmt.Sprintf("reply from %s: seq=%d time=%s", cfg.Address, i, time.Since(start)))
		case <-conn.Done():
			c.UI.Error(fmt.Sprintf("Connection closed: %v", conn.Wait()))
			return 1
		case <-time.After(cfg.WaitTimeout):
			c.UI.Error(fmt.Sprintf("seq=%d: no reply within %s", i, cfg.WaitTimeout))
			return 1
		}
	}
	ch.Delete()
	return 0
}

func (c *pingCmd) Synopsis() string {
	return "Check that a synapse server answers."
}

func (c *pingCmd) Help() string {
	return `
Usage: synapse ping [options]

  Connects to a server started with "synapse serve" and times byte round
  trips on a dedicated channel.

` + flagUsage(c.flags)
}

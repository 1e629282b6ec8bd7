package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"time"

	"github.com/mitchellh/cli"
	"github.com/progrium/clon-go"

	"github.com/progrium/synapse-go/mux"
	"github.com/progrium/synapse-go/talk"
)

func newSend(ui cli.Ui) *sendCmd {
	c := &sendCmd{UI: ui}
	c.flags = flag.NewFlagSet("send", flag.ContinueOnError)
	c.common.register(c.flags)
	c.flags.StringVar(&c.bytes, "bytes", "", "Send this string as raw bytes instead of a value.")
	c.flags.BoolVar(&c.noWait, "no-wait", false, "Do not wait for a reply.")
	return c
}

type sendCmd struct {
	UI     cli.Ui
	flags  *flag.FlagSet
	common commonFlags
	bytes  string
	noWait bool
}

type reply struct {
	data  []byte
	value any
}

func (c *sendCmd) Run(args []string) int {
	if err := c.flags.Parse(args); err != nil {
		return 1
	}
	args = c.flags.Args()
	if len(args) < 1 {
		c.UI.Error("A channel name is required.")
		c.UI.Error(c.Help())
		return 1
	}
	name := args[0]

	cfg, log, err := c.common.load()
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	defer log.Sync()

	var value any
	if c.bytes == "" {
		value, err = clon.Parse(args[1:])
		if err != nil {
			c.UI.Error(fmt.Sprintf("Error parsing value: %s", err))
			return 1
		}
		if value == nil {
			value = map[string]any{}
		}
	}

	conn, err := talk.Dial(cfg.Transport, cfg.Address, mux.WithRegistry(newRegistry()), mux.WithLogger(log.Named("mux")))
	if err != nil {
		c.UI.Error(fmt.Sprintf("Error connecting to %s %s: %s", cfg.Transport, cfg.Address, err))
		return 1
	}
	defer conn.Close()

	replies := make(chan reply, 1)
	conn.Subscribe(mux.HandlerFuncs{
		Bytes: func(e mux.BytesReceived) {
			if e.Channel.Name() == name {
				select {
				case replies <- reply{data: e.Data}:
				default:
				}
			}
		},
		Object: func(e mux.ObjectReceived) {
			if e.Channel.Name() == name {
				select {
				case replies <- reply{value: e.Value}:
				default:
				}
			}
		},
	})
	conn.Run()

	ch, err := conn.CreateChannel(name)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	if c.bytes != "" {
		err = ch.SendBytes([]byte(c.bytes))
	} else {
		err = ch.SendTyped(value)
	}
	if err != nil {
		c.UI.Error(fmt.Sprintf("Error sending: %s", err))
		return 1
	}
	if c.noWait {
		return 0
	}

	select {
	case r := <-replies:
		if r.data != nil {
			c.UI.Output(string(r.data))
			return 0
		}
		b, err := json.MarshalIndent(r.value, "", "  ")
		if err != nil {
			c.UI.Error(err.Error())
			return 1
		}
		c.UI.Output(string(b))
		return 0
	case <-conn.Done():
		c.UI.Error(fmt.Sprintf("Connection closed: %v", conn.Wait()))
		return 1
	case <-time.After(cfg.WaitTimeout):
		c.UI.Error(fmt.Sprintf("No reply within %s", cfg.WaitTimeout))
		return 1
	}
}

func (c *sendCmd) Synopsis() string {
	return "Send a value or bytes on a channel."
}

func (c *sendCmd) Help() string {
	return `
Usage: synapse send [options] CHANNEL [ARGS...]

  Connects, creates CHANNEL and sends a value built from ARGS in CLON
  notation (for example: name=alice tags[]=a,b). With -bytes the string is
  sent as raw bytes instead. Waits for and prints one reply unless
  -no-wait is given.

` + flagUsage(c.flags)
}

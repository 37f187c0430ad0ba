// Command gpsctl asks a running gpsd to switch a receiver between text and
// native mode or change its speed, and checks that the change took.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gpsd-ng/internal/control"
)

const usage = "usage: gpsctl [-b | -n] [-s speed] [-D level] [-addr host:port] [device]"

type options struct {
	addr    string
	timeout time.Duration
	debug   int
	req     control.Request
}

func parseArgs(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("gpsctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprintln(stderr, usage) }
	fs.BoolVar(&o.req.ToNative, "b", false, "Switch the device to its native binary protocol")
	fs.BoolVar(&o.req.ToText, "n", false, "Switch the device to NMEA")
	fs.IntVar(&o.req.Speed, "s", 0, "New baud rate")
	fs.IntVar(&o.debug, "D", 0, "Debug level")
	fs.StringVar(&o.addr, "addr", "127.0.0.1:2947", "gpsd address")
	fs.DurationVar(&o.timeout, "timeout", 5*time.Second, "Per-request timeout")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	switch fs.NArg() {
	case 0:
	case 1:
		o.req.Device = fs.Arg(0)
	default:
		return o, errors.New(usage)
	}
	if o.req.ToText && o.req.ToNative {
		return o, errors.New("make up your mind, would you?")
	}
	if o.req.Speed < 0 {
		return o, fmt.Errorf("bad speed %d", o.req.Speed)
	}
	return o, nil
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("gpsctl: ")

	o, err := parseArgs(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	conn, err := control.Dial(ctx, o.addr, o.timeout)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	c := control.NewController(conn, log.Default(), o.debug > 0)
	if err := c.Run(ctx, o.req); err != nil {
		log.Fatal(err)
	}
	if o.debug > 0 {
		dev := c.Device()
		log.Printf("%s: mode=%d speed=%d", dev.Path, dev.DriverMode, dev.Baudrate)
	}
}

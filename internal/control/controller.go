package control

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/looplab/fsm"

	"gpsd-ng/internal/gps"
)

var (
	ErrNoDevices       = errors.New("control: no devices connected")
	ErrAmbiguousDevice = errors.New("control: multiple devices and no device specified")
	ErrDeviceNotFound  = errors.New("control: specified device not found")
	ErrVerify          = errors.New("control: change not confirmed")
	ErrConflict        = errors.New("control: both text and native mode requested")
)

// Querier sends one request and returns the server's reply line.
type Querier interface {
	Query(ctx context.Context, request string) (string, error)
}

// Request is what the operator wants changed. The zero Request only lists
// and selects.
type Request struct {
	// Device is required when the server has more than one.
	Device   string
	ToText   bool
	ToNative bool
	// Speed is the new baud rate; 0 leaves it alone.
	Speed int
}

const (
	evList   = "list"
	evSelect = "select"
	evMode   = "mode"
	evSpeed  = "speed"
	evFail   = "fail"
)

const (
	sStart    = "start"
	sListed   = "listed"
	sSelected = "selected"
	sModeSet  = "mode_set"
	sDone     = "done"
	sFailed   = "failed"
)

// Controller drives one Request through list, select, mode and speed,
// checking each reply against what was asked for.
type Controller struct {
	q      Querier
	logger *log.Logger
	debug  bool

	fsm  *fsm.FSM
	data *gps.Data
}

// NewController returns a controller. A nil logger means log.Default().
func NewController(q Querier, logger *log.Logger, debug bool) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	c := &Controller{q: q, logger: logger, debug: debug, data: gps.NewData()}
	c.fsm = fsm.NewFSM(
		sStart,
		fsm.Events{
			{Name: evList, Src: []string{sStart}, Dst: sListed},
			{Name: evSelect, Src: []string{sListed}, Dst: sSelected},
			{Name: evMode, Src: []string{sSelected}, Dst: sModeSet},
			{Name: evSpeed, Src: []string{sModeSet}, Dst: sDone},
			{Name: evFail, Src: []string{sStart, sListed, sSelected, sModeSet}, Dst: sFailed},
		},
		fsm.Callbacks{
			"enter_state": func(e *fsm.Event) {
				if c.debug {
					c.logger.Printf("control: %s -> %s", e.Src, e.Dst)
				}
			},
		},
	)
	return c
}

// State is the workflow state, "done" or "failed" after Run.
func (c *Controller) State() string { return c.fsm.Current() }

// Device returns the device state reported by the server.
func (c *Controller) Device() gps.DeviceConfig { return c.data.Dev }

// Run executes req. Selection errors stop the workflow; a mode change that is
// not confirmed still lets the speed change run, and both are reported.
func (c *Controller) Run(ctx context.Context, req Request) error {
	if req.ToText && req.ToNative {
		return ErrConflict
	}
	c.fsm.SetState(sStart)
	c.data.Clear()

	var unconfirmed []error
	for {
		var next string
		var err error
		switch c.fsm.Current() {
		case sStart:
			next, err = evList, c.query(ctx, ListDevices())
		case sListed:
			next, err = evSelect, c.selectDevice(ctx, req.Device)
		case sSelected:
			next, err = evMode, c.setMode(ctx, req)
		case sModeSet:
			next, err = evSpeed, c.setSpeed(ctx, req.Speed)
		case sDone:
			return errors.Join(unconfirmed...)
		default:
			return fmt.Errorf("control: unexpected state %q", c.fsm.Current())
		}
		if errors.Is(err, ErrVerify) {
			c.logger.Print(err)
			unconfirmed = append(unconfirmed, err)
			err = nil
		}
		if err != nil {
			if ferr := c.fsm.Event(evFail); ferr != nil {
				return errors.Join(err, ferr)
			}
			return err
		}
		if err := c.fsm.Event(next); err != nil {
			return fmt.Errorf("control: %w", err)
		}
	}
}

func (c *Controller) query(ctx context.Context, request string) error {
	resp, err := c.q.Query(ctx, request)
	if err != nil {
		return fmt.Errorf("control: query %q: %w", request[:len(request)-1], err)
	}
	_, err = ParseResponse(resp, c.data)
	return err
}

func (c *Controller) selectDevice(ctx context.Context, device string) error {
	devs := Devices(c.data)
	switch {
	case len(devs) == 0:
		return ErrNoDevices
	case len(devs) == 1 && device == "":
		c.data.Dev.Path = devs[0]
		return nil
	case device == "":
		return ErrAmbiguousDevice
	}
	found := false
	for _, p := range devs {
		found = found || p == device
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, device)
	}
	if err := c.query(ctx, SelectDevice(device)); err != nil {
		return err
	}
	if c.data.Dev.Path != device {
		return fmt.Errorf("control: server bound %q, asked for %q", c.data.Dev.Path, device)
	}
	return nil
}

func (c *Controller) setMode(ctx context.Context, req Request) error {
	mode := gps.DriverModeText
	switch {
	case req.ToNative:
		mode = gps.DriverModeNative
	case !req.ToText:
		return nil
	}
	if err := c.query(ctx, SetMode(mode)); err != nil {
		return err
	}
	if c.data.Dev.DriverMode != mode {
		return fmt.Errorf("%w: mode change on %s: got %d, want %d", ErrVerify, c.data.Dev.Path, c.data.Dev.DriverMode, mode)
	}
	c.logger.Printf("control: mode change on %s succeeded", c.data.Dev.Path)
	return nil
}

func (c *Controller) setSpeed(ctx context.Context, baud int) error {
	if baud == 0 {
		return nil
	}
	if err := c.query(ctx, SetSpeed(baud)); err != nil {
		return err
	}
	if c.data.Dev.Baudrate != baud {
		return fmt.Errorf("%w: speed change on %s: got %d, want %d", ErrVerify, c.data.Dev.Path, c.data.Dev.Baudrate, baud)
	}
	c.logger.Printf("control: speed change on %s succeeded", c.data.Dev.Path)
	return nil
}

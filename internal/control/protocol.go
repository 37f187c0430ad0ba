// Package control speaks the single-letter gpsd device control protocol and
// runs the select, mode and speed workflow against a server.
//
// A request is one letter, optionally with "=value". The server answers with a
// line "GPSD,X=value[,Y=value...]" where "?" stands for an unknown value.
package control

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gpsd-ng/internal/gps"
)

// ErrBadResponse is returned for a reply that is not a GPSD line or carries a
// malformed value. The record is not modified.
var ErrBadResponse = errors.New("control: bad response")

const responsePrefix = "GPSD"

// ListDevices asks for the device list.
func ListDevices() string { return "K\n" }

// SelectDevice binds the client to one device.
func SelectDevice(path string) string { return "F=" + path + "\n" }

// SetMode switches the driver between text (0) and native binary (1).
func SetMode(mode int) string { return fmt.Sprintf("N=%d\n", mode) }

// SetSpeed changes the serial line rate.
func SetSpeed(baud int) string { return fmt.Sprintf("B=%d\n", baud) }

// ParseResponse merges the device state carried by a reply into d and returns
// the groups it set: Device for F, N and B, DeviceList for K. Answers of "?"
// are skipped.
func ParseResponse(line string, d *gps.Data) (gps.Mask, error) {
	line = strings.TrimSpace(line)
	items := strings.Split(line, ",")
	if items[0] != responsePrefix {
		return 0, fmt.Errorf("%w: %q", ErrBadResponse, line)
	}

	in := gps.NewData()
	in.Dev = d.Dev
	var mask gps.Mask
	for _, item := range items[1:] {
		if len(item) < 2 || item[1] != '=' {
			return 0, fmt.Errorf("%w: item %q", ErrBadResponse, item)
		}
		val := item[2:]
		if val == "?" {
			continue
		}
		var err error
		switch item[0] {
		case 'K':
			err = parseDevices(val, in)
			mask = mask.With(gps.DeviceList)
		case 'F':
			in.Dev.Path = val
			mask = mask.With(gps.Device)
		case 'N':
			in.Dev.DriverMode, err = strconv.Atoi(val)
			mask = mask.With(gps.Device)
		case 'B':
			err = parseSpeed(val, in)
			mask = mask.With(gps.Device)
		default:
			// other queries answer in the same line; nothing to record
		}
		if err != nil {
			return 0, fmt.Errorf("%w: %c: %v", ErrBadResponse, item[0], err)
		}
	}
	if mask.IsEmpty() {
		return 0, nil
	}
	return d.Merge(in, mask)
}

// parseDevices reads "count path path...".
func parseDevices(val string, in *gps.Data) error {
	fields := strings.Fields(val)
	if len(fields) == 0 {
		return errors.New("empty device list")
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return err
	}
	paths := fields[1:]
	if n != len(paths) {
		return fmt.Errorf("count %d, %d paths", n, len(paths))
	}
	if len(paths) > gps.MaxUserDevs {
		paths = paths[:gps.MaxUserDevs]
	}
	r := gps.DeviceListReport{Time: math.NaN()}
	for _, p := range paths {
		var c gps.DeviceConfig
		c.Clear()
		c.Path = p
		c.Bound()
		r.Devices = append(r.Devices, c)
	}
	in.Report = r
	return nil
}

// parseSpeed reads "baud bits parity stopbits", e.g. "4800 8 N 1".
func parseSpeed(val string, in *gps.Data) error {
	fields := strings.Fields(val)
	if len(fields) != 4 {
		return fmt.Errorf("speed %q", val)
	}
	baud, err := strconv.Atoi(fields[0])
	if err != nil {
		return err
	}
	if len(fields[2]) != 1 || !strings.Contains("NOE", fields[2]) {
		return fmt.Errorf("parity %q", fields[2])
	}
	stop, err := strconv.Atoi(fields[3])
	if err != nil {
		return err
	}
	in.Dev.Baudrate = baud
	in.Dev.Parity = fields[2][0]
	in.Dev.Stopbits = stop
	return nil
}

// Devices returns the paths of the last device list in d.
func Devices(d *gps.Data) []string {
	r, ok := d.Report.(gps.DeviceListReport)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(r.Devices))
	for _, c := range r.Devices {
		out = append(out, c.Path)
	}
	return out
}

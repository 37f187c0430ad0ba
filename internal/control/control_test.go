package control

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"gpsd-ng/internal/gps"
)

func TestRequests(t *testing.T) {
	cases := map[string]string{
		ListDevices():              "K\n",
		SelectDevice("/dev/ttyS0"): "F=/dev/ttyS0\n",
		SetMode(1):                 "N=1\n",
		SetSpeed(9600):             "B=9600\n",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("request=%q want %q", got, want)
		}
	}
}

func TestParseResponse(t *testing.T) {
	d := gps.NewData()
	mask, err := ParseResponse("GPSD,K=2 /dev/ttyS0 /dev/ttyUSB0,F=/dev/ttyUSB0,N=1,B=4800 8 N 1\r\n", d)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if !mask.Has(gps.Device) || !mask.Has(gps.DeviceList) {
		t.Fatalf("mask=%s", mask)
	}
	if d.Dev.Path != "/dev/ttyUSB0" || d.Dev.DriverMode != 1 {
		t.Fatalf("dev=%+v", d.Dev)
	}
	if d.Dev.Baudrate != 4800 || d.Dev.Parity != 'N' || d.Dev.Stopbits != 1 {
		t.Fatalf("serial=%d %c %d", d.Dev.Baudrate, d.Dev.Parity, d.Dev.Stopbits)
	}
	devs := Devices(d)
	if len(devs) != 2 || devs[0] != "/dev/ttyS0" || devs[1] != "/dev/ttyUSB0" {
		t.Fatalf("devices=%v", devs)
	}
}

func TestParseResponse_PartialKeepsDevice(t *testing.T) {
	d := gps.NewData()
	if _, err := ParseResponse("GPSD,F=/dev/gps0,B=9600 8 E 2", d); err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if _, err := ParseResponse("GPSD,N=1", d); err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if d.Dev.Path != "/dev/gps0" || d.Dev.Baudrate != 9600 || d.Dev.Parity != 'E' || d.Dev.DriverMode != 1 {
		t.Fatalf("dev=%+v", d.Dev)
	}
}

func TestParseResponse_Unknown(t *testing.T) {
	d := gps.NewData()
	mask, err := ParseResponse("GPSD,F=?,B=?", d)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if !mask.IsEmpty() || d.Set != 0 {
		t.Fatalf("mask=%s set=%s", mask, d.Set)
	}
}

func TestParseResponse_Errors(t *testing.T) {
	for _, line := range []string{
		"",
		"$GPRMC,foo",
		"GPSD,F",
		"GPSD,K=3 /dev/a /dev/b",
		"GPSD,K=x",
		"GPSD,N=native",
		"GPSD,B=4800 8 X 1",
		"GPSD,B=4800",
		"GPSD,F=/dev/a,B=fast 8 N 1",
	} {
		d := gps.NewData()
		if _, err := ParseResponse(line, d); !errors.Is(err, ErrBadResponse) {
			t.Fatalf("%q: err=%v want ErrBadResponse", line, err)
		}
		if d.Dev.Path != "" || d.Set != 0 {
			t.Fatalf("%q: record modified: %+v", line, d.Dev)
		}
	}
}

func TestParseResponse_CapsDeviceList(t *testing.T) {
	d := gps.NewData()
	if _, err := ParseResponse("GPSD,K=6 /a /b /c /d /e /f", d); err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if n := len(Devices(d)); n != gps.MaxUserDevs {
		t.Fatalf("devices=%d want %d", n, gps.MaxUserDevs)
	}
}

// fakeServer answers like a gpsd holding devices, one of them selected.
type fakeServer struct {
	devices  []string
	selected string
	mode     int
	baud     int
	// stuck ignores mode and speed changes.
	stuck bool
	sent  []string
}

func (f *fakeServer) Query(_ context.Context, req string) (string, error) {
	req = strings.TrimSpace(req)
	f.sent = append(f.sent, req)
	switch {
	case req == "K":
		return "GPSD,K=" + strings.Join(append([]string{strconv.Itoa(len(f.devices))}, f.devices...), " "), nil
	case strings.HasPrefix(req, "F="):
		for _, d := range f.devices {
			if d == req[2:] {
				f.selected = d
			}
		}
		return "GPSD,F=" + f.selected, nil
	case strings.HasPrefix(req, "N="):
		if !f.stuck {
			f.mode = int(req[2] - '0')
		}
		return "GPSD,N=" + strconv.Itoa(f.mode), nil
	case strings.HasPrefix(req, "B="):
		if !f.stuck {
			f.baud, _ = strconv.Atoi(req[2:])
		}
		return "GPSD,B=" + strconv.Itoa(f.baud) + " 8 N 1", nil
	}
	return "GPSD", nil
}

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func TestController_SingleDevice(t *testing.T) {
	srv := &fakeServer{devices: []string{"/dev/ttyUSB0"}, selected: "/dev/ttyUSB0", baud: 4800}
	c := NewController(srv, quietLogger(), true)

	err := c.Run(context.Background(), Request{ToNative: true, Speed: 38400})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if c.State() != sDone {
		t.Fatalf("state=%q", c.State())
	}
	want := []string{"K", "N=1", "B=38400"}
	if strings.Join(srv.sent, " ") != strings.Join(want, " ") {
		t.Fatalf("sent=%v want %v", srv.sent, want)
	}
	dev := c.Device()
	if dev.Path != "/dev/ttyUSB0" || dev.DriverMode != 1 || dev.Baudrate != 38400 {
		t.Fatalf("device=%+v", dev)
	}
}

func TestController_SelectsNamedDevice(t *testing.T) {
	srv := &fakeServer{devices: []string{"/dev/a", "/dev/b"}, selected: "/dev/a", mode: 1}
	c := NewController(srv, quietLogger(), false)

	if err := c.Run(context.Background(), Request{Device: "/dev/b", ToText: true}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if srv.selected != "/dev/b" || srv.mode != 0 {
		t.Fatalf("server=%+v", srv)
	}
	if c.Device().Path != "/dev/b" {
		t.Fatalf("path=%q", c.Device().Path)
	}
}

func TestController_SelectionErrors(t *testing.T) {
	cases := []struct {
		name    string
		devices []string
		device  string
		want    error
	}{
		{"none", nil, "", ErrNoDevices},
		{"ambiguous", []string{"/dev/a", "/dev/b"}, "", ErrAmbiguousDevice},
		{"missing", []string{"/dev/a", "/dev/b"}, "/dev/c", ErrDeviceNotFound},
		{"missing single", []string{"/dev/a"}, "/dev/c", ErrDeviceNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := &fakeServer{devices: tc.devices}
			c := NewController(srv, quietLogger(), false)
			err := c.Run(context.Background(), Request{Device: tc.device, ToNative: true})
			if !errors.Is(err, tc.want) {
				t.Fatalf("err=%v want %v", err, tc.want)
			}
			if c.State() != sFailed {
				t.Fatalf("state=%q", c.State())
			}
			for _, s := range srv.sent {
				if strings.HasPrefix(s, "N=") {
					t.Fatalf("mode change sent after selection failure: %v", srv.sent)
				}
			}
		})
	}
}

func TestController_NamedDeviceMustBeListed(t *testing.T) {
	srv := &fakeServer{devices: []string{"/dev/ttyUSB0"}, selected: "/dev/ttyUSB0", baud: 4800}
	c := NewController(srv, quietLogger(), false)

	err := c.Run(context.Background(), Request{Device: "/dev/ttyUSB1", Speed: 9600})
	if !errors.Is(err, ErrDeviceNotFound) || !strings.Contains(err.Error(), "/dev/ttyUSB1") {
		t.Fatalf("err=%v want ErrDeviceNotFound for /dev/ttyUSB1", err)
	}
	if len(srv.sent) != 1 || srv.sent[0] != "K" {
		t.Fatalf("sent=%v, want only the device list query", srv.sent)
	}
	if srv.selected != "/dev/ttyUSB0" || srv.baud != 4800 {
		t.Fatalf("server=%+v", srv)
	}
	if c.Device().Path == "/dev/ttyUSB0" {
		t.Fatalf("the only listed device was bound in place of the named one")
	}
}

func TestController_VerifyFailureContinues(t *testing.T) {
	srv := &fakeServer{devices: []string{"/dev/a"}, selected: "/dev/a", baud: 4800, stuck: true}
	c := NewController(srv, quietLogger(), false)

	err := c.Run(context.Background(), Request{ToNative: true, Speed: 9600})
	if !errors.Is(err, ErrVerify) {
		t.Fatalf("err=%v want ErrVerify", err)
	}
	if !strings.Contains(err.Error(), "mode change") || !strings.Contains(err.Error(), "speed change") {
		t.Fatalf("err=%v should report both changes", err)
	}
	if c.State() != sDone {
		t.Fatalf("state=%q", c.State())
	}
}

func TestController_Conflict(t *testing.T) {
	srv := &fakeServer{devices: []string{"/dev/a"}}
	c := NewController(srv, quietLogger(), false)
	if err := c.Run(context.Background(), Request{ToText: true, ToNative: true}); !errors.Is(err, ErrConflict) {
		t.Fatalf("err=%v", err)
	}
	if len(srv.sent) != 0 {
		t.Fatalf("sent=%v", srv.sent)
	}
}

func TestController_Rerun(t *testing.T) {
	srv := &fakeServer{devices: []string{"/dev/a"}, selected: "/dev/a"}
	c := NewController(srv, quietLogger(), false)
	for i := 0; i < 2; i++ {
		if err := c.Run(context.Background(), Request{Speed: 4800}); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
}

func TestConn_Query(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		req, _ := r.ReadString('\n')
		if strings.TrimSpace(req) != "K" {
			return
		}
		// a streamed object ahead of the reply is skipped
		io.WriteString(conn, "{\"class\":\"TPV\",\"mode\":1}\n")
		io.WriteString(conn, "GPSD,K=1 /dev/ttyS0\n")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := Dial(ctx, ln.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	resp, err := c.Query(ctx, ListDevices())
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if resp != "GPSD,K=1 /dev/ttyS0" {
		t.Fatalf("resp=%q", resp)
	}
}

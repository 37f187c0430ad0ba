package gps

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"gpsd-ng/internal/rtcm2"
)

func dump(d *Data) string { return fmt.Sprintf("%+v", *d) }

func tpvPartial(t float64) *Data {
	in := NewData()
	in.Fix.Time = t
	in.Fix.Latitude = 45.5
	in.Fix.Longitude = -122.9
	in.Fix.Mode = Mode3D
	in.Status = StatusFix
	return in
}

func TestMerge_Idempotent(t *testing.T) {
	mask := MaskOf(Time, LatLon, Mode, Status)
	in := tpvPartial(1700000000)

	once := NewData()
	if _, err := once.Merge(in, mask); err != nil {
		t.Fatalf("merge: %v", err)
	}
	twice := NewData()
	for i := 0; i < 2; i++ {
		if _, err := twice.Merge(in, mask); err != nil {
			t.Fatalf("merge: %v", err)
		}
	}
	if dump(once) != dump(twice) {
		t.Fatalf("second merge changed the record\nonce:  %s\ntwice: %s", dump(once), dump(twice))
	}
}

func TestMerge_MaskPrecision(t *testing.T) {
	d := NewData()
	in := tpvPartial(100)
	in.Fix.Speed = 12 // present in the partial but not in the mask
	set, err := d.Merge(in, MaskOf(Time, LatLon))
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if set != MaskOf(Time, LatLon) {
		t.Fatalf("set=%s", set)
	}
	if !math.IsNaN(d.Fix.Speed) {
		t.Fatalf("speed=%v want NaN", d.Fix.Speed)
	}
	if d.Fix.Mode != ModeNotSeen {
		t.Fatalf("mode=%d copied without MODE bit", d.Fix.Mode)
	}
	if d.Fix.Latitude != 45.5 || d.Fix.Longitude != -122.9 {
		t.Fatalf("latlon=%v,%v", d.Fix.Latitude, d.Fix.Longitude)
	}
}

func TestMerge_DevicePathWithoutDeviceGroup(t *testing.T) {
	d := NewData()
	d.Dev.Driver = "NMEA0183"
	d.Dev.Baudrate = 4800

	in := tpvPartial(100)
	in.Dev.Path = "/dev/ttyUSB0"
	set, err := d.Merge(in, MaskOf(Time, LatLon))
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if set.Has(Device) {
		t.Fatalf("set=%s", set)
	}
	if d.Dev.Path != "/dev/ttyUSB0" || d.Dev.Driver != "NMEA0183" || d.Dev.Baudrate != 4800 {
		t.Fatalf("dev=%+v", d.Dev)
	}

	// A partial without a path keeps the stored one.
	if _, err := d.Merge(tpvPartial(101), MaskOf(Time, LatLon)); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if d.Dev.Path != "/dev/ttyUSB0" {
		t.Fatalf("path=%q", d.Dev.Path)
	}
}

func TestMerge_ModeOnlyWithModeBit(t *testing.T) {
	d := NewData()
	if _, err := d.Merge(tpvPartial(1), MaskOf(Time, Mode)); err != nil {
		t.Fatalf("merge: %v", err)
	}
	in := NewData()
	in.Fix.Mode = ModeNoFix
	in.Fix.Speed = 3
	if _, err := d.Merge(in, MaskOf(Speed)); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if d.Fix.Mode != Mode3D {
		t.Fatalf("mode=%d want %d", d.Fix.Mode, Mode3D)
	}
}

func TestMerge_CycleSemantics(t *testing.T) {
	d := NewData()
	if _, err := d.Merge(tpvPartial(10), MaskOf(Time, LatLon)); err != nil {
		t.Fatal(err)
	}
	alt := NewData()
	alt.Fix.Time = 10
	alt.Fix.Altitude = 120
	set, err := d.Merge(alt, MaskOf(Time, Altitude))
	if err != nil {
		t.Fatal(err)
	}
	if want := MaskOf(Time, LatLon, Altitude); set != want {
		t.Fatalf("same time: set=%s want %s", set, want)
	}

	next := tpvPartial(11)
	set, err = d.Merge(next, MaskOf(Time, Mode))
	if err != nil {
		t.Fatal(err)
	}
	if want := MaskOf(Time, Mode); set != want {
		t.Fatalf("new time: set=%s want %s", set, want)
	}
	if d.Fix.Altitude != 120 {
		t.Fatalf("altitude lost on new cycle: %v", d.Fix.Altitude)
	}
}

func TestMerge_AuxSlot(t *testing.T) {
	d := NewData()
	in := NewData()
	in.Report = ErrorReport{Message: "boom"}
	if _, err := d.Merge(in, MaskOf(Error)); err != nil {
		t.Fatalf("merge: %v", err)
	}

	in2 := NewData()
	in2.Report = RTCM2Report{&rtcm2.Message{Type: 16}}
	set, err := d.Merge(in2, MaskOf(RTCM2))
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if set.Has(Error) || !set.Has(RTCM2) {
		t.Fatalf("set=%s", set)
	}
	if _, ok := d.Report.(RTCM2Report); !ok {
		t.Fatalf("report=%T", d.Report)
	}
}

func TestMerge_AuxConflictLeavesRecord(t *testing.T) {
	d := NewData()
	if _, err := d.Merge(tpvPartial(5), MaskOf(Time, LatLon)); err != nil {
		t.Fatal(err)
	}
	before := dump(d)

	tests := []struct {
		name   string
		report Report
		mask   Mask
	}{
		{"two aux bits", ErrorReport{Message: "x"}, MaskOf(Error, AIS)},
		{"wrong variant", ErrorReport{Message: "x"}, MaskOf(RTCM3)},
		{"missing report", nil, MaskOf(GST)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tpvPartial(99)
			in.Report = tt.report
			_, err := d.Merge(in, tt.mask.With(Time))
			if !errors.Is(err, ErrAuxConflict) {
				t.Fatalf("err=%v want ErrAuxConflict", err)
			}
			if got := dump(d); got != before {
				t.Fatalf("record changed\n got: %s\nwant: %s", got, before)
			}
		})
	}
}

func TestMerge_SkyviewCompaction(t *testing.T) {
	in := NewData()
	var want []int
	for i := 0; i < 32; i++ {
		used := i%2 == 0
		in.Sky.Add(Satellite{PRN: i + 1, Elevation: 10, Azimuth: 20 * i, SS: 40, Used: used})
		if used {
			want = append(want, i+1)
		}
	}
	d := NewData()
	if _, err := d.Merge(in, MaskOf(SatelliteSet)); err != nil {
		t.Fatal(err)
	}
	if d.SatellitesUsed != len(want) {
		t.Fatalf("satellites_used=%d want %d", d.SatellitesUsed, len(want))
	}
	for i, prn := range want {
		if d.Used[i] != prn {
			t.Fatalf("used[%d]=%d want %d", i, d.Used[i], prn)
		}
	}
	if d.Used[len(want)] != 0 {
		t.Fatalf("stale entry after compaction: %d", d.Used[len(want)])
	}
}

func TestSkyview_AddCapped(t *testing.T) {
	var s Skyview
	for i := 0; i < MaxChannels; i++ {
		if !s.Add(Satellite{PRN: i + 1}) {
			t.Fatalf("add %d refused", i)
		}
	}
	if s.Add(Satellite{PRN: 200}) {
		t.Fatalf("add beyond capacity accepted")
	}
	if s.Visible != MaxChannels {
		t.Fatalf("visible=%d", s.Visible)
	}
}

func TestMerge_BoundsStrings(t *testing.T) {
	in := NewData()
	in.Tag = "GPRMC-extra"
	in.Dev.Path = "/dev/" + string(make([]byte, 100))
	d := NewData()
	if _, err := d.Merge(in, MaskOf(Packet, Device)); err != nil {
		t.Fatal(err)
	}
	if d.Tag != "GPRMC-ex" {
		t.Fatalf("tag=%q", d.Tag)
	}
	if len(d.Dev.Path) != PathMax {
		t.Fatalf("path len=%d", len(d.Dev.Path))
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"abc", 8, "abc"},
		{"abcdefghij", 8, "abcdefgh"},
		{"abcdefgé", 8, "abcdefg"},
		{"héllo", 2, "h"},
		{"", 0, ""},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Fatalf("Truncate(%q,%d)=%q want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestFix_EphSplit(t *testing.T) {
	var f Fix
	f.Clear()
	if !math.IsNaN(f.Eph()) {
		t.Fatalf("eph=%v want NaN", f.Eph())
	}
	f.SetEph(4.2)
	if math.Abs(f.Eph()-4.2) > 1e-12 {
		t.Fatalf("eph=%v", f.Eph())
	}
}

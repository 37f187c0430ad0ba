package gps

import (
	"bytes"
	"log"
	"strings"
	"sync"
	"testing"
)

func TestSession_ConsumeClearsSet(t *testing.T) {
	s := NewSession(log.New(&bytes.Buffer{}, "", 0))
	if _, err := s.Apply(tpvPartial(1), MaskOf(Time, LatLon)); err != nil {
		t.Fatal(err)
	}
	got := s.Consume()
	if got.Set != MaskOf(Time, LatLon) {
		t.Fatalf("consumed set=%s", got.Set)
	}
	if snap := s.Snapshot(); snap.Set != 0 || snap.Fix.Latitude != 45.5 {
		t.Fatalf("after consume set=%s lat=%v", snap.Set, snap.Fix.Latitude)
	}
	s.Reset()
	if snap := s.Snapshot(); snap.Fix.Latitude == 45.5 {
		t.Fatalf("reset kept fix")
	}
}

func TestSession_SnapshotIsDeepCopy(t *testing.T) {
	s := NewSession(nil)
	in := NewData()
	in.Report = DeviceListReport{Devices: []DeviceConfig{{Path: "/dev/a"}}}
	if _, err := s.Apply(in, MaskOf(DeviceList)); err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	snap.Report.(DeviceListReport).Devices[0].Path = "/dev/x"
	again := s.Snapshot()
	if p := again.Report.(DeviceListReport).Devices[0].Path; p != "/dev/a" {
		t.Fatalf("path=%q", p)
	}
}

func TestSession_LoggerPrefix(t *testing.T) {
	var buf bytes.Buffer
	s := NewSession(log.New(&buf, "gpsd-ng ", 0))
	s.Logger().Printf("hello")
	if !strings.HasPrefix(buf.String(), "gpsd-ng session "+s.ID().String()[:8]) {
		t.Fatalf("log=%q", buf.String())
	}
}

func TestSession_ConcurrentReadersSeeConsistentRecord(t *testing.T) {
	s := NewSession(nil)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			in := tpvPartial(float64(i + 1))
			in.Fix.Latitude = float64(i)
			_, _ = s.Apply(in, MaskOf(Time, LatLon))
		}
	}()
	for i := 0; i < 500; i++ {
		d := s.Snapshot()
		if d.Set.Has(LatLon) && d.Fix.Latitude != d.Fix.Time-1 {
			t.Fatalf("torn read: time=%v lat=%v", d.Fix.Time, d.Fix.Latitude)
		}
	}
	wg.Wait()
}

package web

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"gpsd-ng/internal/gps"
)

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp, string(b)
}

func TestAPIStatus(t *testing.T) {
	st := NewStatus()
	st.SetStatic("capture run.log", []string{"stdout", "udp 127.0.0.1:2947"})
	st.SetSourceState(func() any { return map[string]string{"state": "connected"} })
	st.MarkEmit(time.Now().UTC(), 3, 1)
	s := gps.NewSession(log.New(io.Discard, "", 0))

	ts := httptest.NewServer(Handler(Deps{Status: st, Session: s}))
	defer ts.Close()

	resp, body := get(t, ts.URL+"/api/status")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code=%d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type=%q", ct)
	}

	var snap struct {
		StatusSnapshot
		SourceState map[string]string `json:"source_state"`
	}
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if snap.Service != "gpsd-ng" || snap.Source != "capture run.log" || len(snap.Sinks) != 2 {
		t.Fatalf("snap=%+v", snap)
	}
	if snap.ObjectsSentTotal != 3 || snap.SendErrorsTotal != 1 || snap.LastEmitUTC == "" {
		t.Fatalf("snap=%+v", snap)
	}
	if snap.Session != s.ID().String() || snap.SourceState["state"] != "connected" {
		t.Fatalf("snap=%+v", snap)
	}
}

func TestAPIStatus_MethodNotAllowed(t *testing.T) {
	ts := httptest.NewServer(Handler(Deps{Status: NewStatus()}))
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/status", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed || resp.Header.Get("Allow") != http.MethodGet {
		t.Fatalf("status=%d allow=%q", resp.StatusCode, resp.Header.Get("Allow"))
	}
}

func TestAPIFix(t *testing.T) {
	s := gps.NewSession(log.New(io.Discard, "", 0))
	in := gps.NewData()
	in.Fix.Mode = gps.Mode3D
	in.Fix.Latitude, in.Fix.Longitude = 48.1173, 11.5167
	if _, err := s.Apply(in, gps.MaskOf(gps.Mode, gps.LatLon)); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	ts := httptest.NewServer(Handler(Deps{Session: s}))
	defer ts.Close()

	resp, body := get(t, ts.URL+"/api/fix")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code=%d body=%s", resp.StatusCode, body)
	}
	var objs []map[string]any
	if err := json.Unmarshal([]byte(body), &objs); err != nil {
		t.Fatalf("decode json: %v (%s)", err, body)
	}
	if len(objs) != 1 || objs[0]["class"] != "TPV" || objs[0]["lat"] != 48.1173 {
		t.Fatalf("objs=%v", objs)
	}
}

func TestMetricsAndMissingEndpoints(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "gpsd_ng_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Add(2)

	ts := httptest.NewServer(Handler(Deps{Registry: reg}))
	defer ts.Close()

	_, body := get(t, ts.URL+"/metrics")
	if !strings.Contains(body, "gpsd_ng_test_total 2") {
		t.Fatalf("metrics=%s", body)
	}
	if resp, _ := get(t, ts.URL+"/api/status"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status without Status: code=%d", resp.StatusCode)
	}
}

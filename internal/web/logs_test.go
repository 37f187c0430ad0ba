package web

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLogBuffer_HoldsPartialLines(t *testing.T) {
	b := NewLogBuffer(10)
	fmt.Fprint(b, "first li")
	if lines, _ := b.Snapshot(0, ""); len(lines) != 0 {
		t.Fatalf("partial line published: %v", lines)
	}
	fmt.Fprint(b, "ne\r\nsecond\n\nthird")
	lines, _ := b.Snapshot(0, "")
	if strings.Join(lines, "|") != "first line|second" {
		t.Fatalf("lines=%q", lines)
	}
}

func TestLogBuffer_DropsOldest(t *testing.T) {
	b := NewLogBuffer(3)
	logger := log.New(b, "", 0)
	for i := 0; i < 5; i++ {
		logger.Printf("line %d", i)
	}
	lines, dropped := b.Snapshot(0, "")
	if dropped != 2 || strings.Join(lines, "|") != "line 2|line 3|line 4" {
		t.Fatalf("lines=%q dropped=%d", lines, dropped)
	}
	if lines, _ := b.Snapshot(1, ""); len(lines) != 1 || lines[0] != "line 4" {
		t.Fatalf("tail 1=%q", lines)
	}
}

func TestLogBuffer_Handler(t *testing.T) {
	b := NewLogBuffer(0)
	log.New(b, "", 0).Print("ingest: nmea: bad checksum")

	ts := httptest.NewServer(Handler(Deps{Logs: b}))
	defer ts.Close()

	resp, body := get(t, ts.URL+"/api/logs?tail=5")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	var lr LogsResponse
	if err := json.Unmarshal([]byte(body), &lr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(lr.Lines) != 1 || lr.Lines[0] != "ingest: nmea: bad checksum" {
		t.Fatalf("lines=%q", lr.Lines)
	}

	_, text := get(t, ts.URL+"/api/logs?format=text")
	if text != "ingest: nmea: bad checksum\n" {
		t.Fatalf("text=%q", text)
	}

	log.New(b, "gpsd-ng: ", 0).Print("gpsd client: connected")
	_, text = get(t, ts.URL+"/api/logs?format=text&component=gpsd+client")
	if text != "gpsd-ng: gpsd client: connected\n" {
		t.Fatalf("filtered text=%q", text)
	}

	if resp, _ := get(t, ts.URL+"/api/logs?tail=0"); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("tail=0 status=%d", resp.StatusCode)
	}
	if resp, _ := get(t, ts.URL+"/api/logs?tail=x"); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("tail=x status=%d", resp.StatusCode)
	}
}

func TestLogBuffer_RingWrapsInOrder(t *testing.T) {
	b := NewLogBuffer(4)
	for i := 0; i < 10; i++ {
		fmt.Fprintf(b, "ingest: frame %d\n", i)
	}
	lines, dropped := b.Snapshot(0, "")
	if dropped != 6 || strings.Join(lines, "|") != "ingest: frame 6|ingest: frame 7|ingest: frame 8|ingest: frame 9" {
		t.Fatalf("lines=%q dropped=%d", lines, dropped)
	}
	if lines, _ := b.Snapshot(0, "frame 8"); len(lines) != 1 {
		t.Fatalf("match=%q", lines)
	}
}

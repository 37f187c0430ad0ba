package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"gpsd-ng/internal/gps"
	"gpsd-ng/internal/ingest"
	"gpsd-ng/internal/replay"
)

type captureSummary struct {
	Segments    int
	Frames      int
	Invalid     int
	MaxDuration time.Duration
	Counts      map[ingest.Protocol]int
	Final       gps.Data
}

// summarizeCapture runs records through a scratch pipeline. Frames that fail
// to decode count as invalid.
func summarizeCapture(records []replay.Record) (captureSummary, error) {
	s := captureSummary{Counts: map[ingest.Protocol]int{}}
	session := gps.NewSession(log.New(io.Discard, "", 0))
	p, err := ingest.New(session, ingest.Config{})
	if err != nil {
		return s, err
	}

	origin := time.Duration(0)
	hasFrames := false
	segments := 0

	for _, r := range records {
		if r.Start {
			segments++
			origin = r.At
			continue
		}
		hasFrames = true

		s.Frames++
		at := r.At - origin
		if at < 0 {
			at = 0
		}
		if at > s.MaxDuration {
			s.MaxDuration = at
		}

		s.Counts[r.Frame.Protocol]++
		if _, err := p.Handle(r.Frame); err != nil {
			s.Invalid++
		}
	}
	if segments == 0 && hasFrames {
		segments = 1
	}
	s.Segments = segments
	s.Final = session.Snapshot()
	return s, nil
}

func printCaptureSummary(w io.Writer, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("path is empty")
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	recs, err := replay.NewReader(f).ReadAll()
	if err != nil {
		return err
	}

	s, err := summarizeCapture(recs)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "path: %s\n", path)
	fmt.Fprintf(w, "segments: %d\n", s.Segments)
	fmt.Fprintf(w, "frames: %d\n", s.Frames)
	fmt.Fprintf(w, "invalid_frames: %d\n", s.Invalid)
	fmt.Fprintf(w, "max_duration: %s\n", s.MaxDuration)

	keys := make([]string, 0, len(s.Counts))
	for k := range s.Counts {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	fmt.Fprintf(w, "protocol_counts:\n")
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %d\n", k, s.Counts[ingest.Protocol(k)])
	}
	fmt.Fprintf(w, "final_set: %s\n", s.Final.Set)
	return nil
}

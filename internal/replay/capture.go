// Package replay records and plays back framed receiver data.
package replay

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gpsd-ng/internal/ingest"
)

// A capture holds one frame per line:
//
//	<t_ns>,<protocol>,<aux>,<hex>
//
// t_ns counts nanoseconds from the most recent START line, protocol is an
// ingest protocol name, aux is the AIS fill bit count or the subframe SVID
// (0 otherwise) and hex is the frame bytes. Blank lines and '#' comments are
// skipped.

type Record struct {
	At time.Duration
	// Start marks a START line; Frame is then empty.
	Start bool
	Frame ingest.Frame
}

type Reader struct {
	r io.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

func (rr *Reader) ReadAll() ([]Record, error) {
	s := bufio.NewScanner(rr.r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	recs := make([]Record, 0, 1024)
	lineno := 0
	for s.Scan() {
		lineno++
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "START" {
			recs = append(recs, Record{Start: true})
			continue
		}
		rec, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("replay: line %d: %w", lineno, err)
		}
		recs = append(recs, rec)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}

func parseLine(line string) (Record, error) {
	parts := strings.SplitN(line, ",", 4)
	if len(parts) != 4 {
		return Record{}, fmt.Errorf("want 4 fields: %q", line)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	tsNs, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("timestamp %q: %w", parts[0], err)
	}
	if tsNs < 0 {
		return Record{}, fmt.Errorf("negative timestamp %d", tsNs)
	}
	proto, err := ingest.ParseProtocol(parts[1])
	if err != nil {
		return Record{}, err
	}
	aux, err := strconv.Atoi(parts[2])
	if err != nil {
		return Record{}, fmt.Errorf("aux %q: %w", parts[2], err)
	}
	b, err := hex.DecodeString(strings.ReplaceAll(parts[3], " ", ""))
	if err != nil {
		return Record{}, fmt.Errorf("hex payload: %w", err)
	}
	if len(b) == 0 {
		return Record{}, errors.New("empty payload")
	}

	f := ingest.Frame{Protocol: proto, Data: b}
	setAux(&f, aux)
	return Record{At: time.Duration(tsNs), Frame: f}, nil
}

func setAux(f *ingest.Frame, aux int) {
	switch f.Protocol {
	case ingest.AIS:
		f.Pad = aux
	case ingest.Subframe:
		f.SVID = aux
	}
}

func auxOf(f ingest.Frame) int {
	switch f.Protocol {
	case ingest.AIS:
		return f.Pad
	case ingest.Subframe:
		return f.SVID
	}
	return 0
}

type Writer struct {
	f      *os.File
	w      *bufio.Writer
	start  time.Time
	closed bool
}

func CreateWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	bw := bufio.NewWriterSize(f, 64*1024)
	if _, err := bw.WriteString("START\n"); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Writer{f: f, w: bw, start: time.Now()}, nil
}

func (ww *Writer) WriteFrame(now time.Time, frame ingest.Frame) error {
	if ww.closed {
		return errors.New("replay: writer is closed")
	}
	if len(frame.Data) == 0 {
		return errors.New("replay: empty frame")
	}

	d := now.Sub(ww.start)
	if d < 0 {
		d = 0
	}
	_, err := fmt.Fprintf(ww.w, "%d,%s,%d,%s\n", d.Nanoseconds(), frame.Protocol, auxOf(frame), hex.EncodeToString(frame.Data))
	return err
}

func (ww *Writer) Flush() error {
	if ww.closed {
		return nil
	}
	return ww.w.Flush()
}

func (ww *Writer) Close() error {
	if ww.closed {
		return nil
	}
	ww.closed = true
	if err := ww.w.Flush(); err != nil {
		_ = ww.f.Close()
		return err
	}
	return ww.f.Close()
}

type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realSleeper struct{}

func (realSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Play replays records with their relative timing until the records run out
// or ctx is done. START markers reset the origin.
//
// Waits between frames are divided by speed, so 2 plays twice as fast.
func Play(ctx context.Context, records []Record, speed float64, loop bool, sleeper Sleeper, cb func(ingest.Frame) error) error {
	if speed <= 0 {
		return fmt.Errorf("replay: speed must be > 0")
	}
	if sleeper == nil {
		sleeper = realSleeper{}
	}
	if cb == nil {
		return errors.New("replay: callback is nil")
	}
	if len(records) == 0 {
		return errors.New("replay: no records")
	}

	for {
		var origin time.Duration
		var lastAt time.Duration
		var haveLast bool

		for _, r := range records {
			if err := ctx.Err(); err != nil {
				return err
			}
			if r.Start {
				origin = r.At
				lastAt = 0
				haveLast = false
				continue
			}

			at := r.At - origin
			if at < 0 {
				at = 0
			}
			if haveLast {
				wait := time.Duration(float64(at-lastAt) / speed)
				if wait > 0 {
					if err := sleeper.Sleep(ctx, wait); err != nil {
						return err
					}
				}
			}

			if err := cb(r.Frame); err != nil {
				return err
			}

			lastAt = at
			haveLast = true
		}

		if !loop {
			return nil
		}
	}
}

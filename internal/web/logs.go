package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultTail = 200
	maxTail     = 5000
)

// LogBuffer is a fixed ring of the most recent log lines. Install it with
// io.MultiWriter next to the daemon's own output.
type LogBuffer struct {
	mu      sync.Mutex
	ring    []string
	next    int // slot the next line goes to
	full    bool
	pending []byte
	dropped uint64
}

func NewLogBuffer(capacity int) *LogBuffer {
	if capacity <= 0 {
		capacity = 2000
	}
	return &LogBuffer{ring: make([]string, capacity)}
}

// Write splits p into lines. Trailing bytes without a newline wait for the
// next Write.
func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rest := append(b.pending, p...)
	for {
		line, tail, ok := bytes.Cut(rest, []byte{'\n'})
		if !ok {
			break
		}
		b.push(string(bytes.TrimRight(line, "\r")))
		rest = tail
	}
	b.pending = append(b.pending[:0:0], rest...)
	return len(p), nil
}

func (b *LogBuffer) push(line string) {
	if line == "" {
		return
	}
	if b.full {
		b.dropped++
	}
	b.ring[b.next] = line
	b.next++
	if b.next == len(b.ring) {
		b.next, b.full = 0, true
	}
}

// ordered returns the held lines oldest first. Callers hold mu.
func (b *LogBuffer) ordered() []string {
	if !b.full {
		return append([]string(nil), b.ring[:b.next]...)
	}
	out := make([]string, 0, len(b.ring))
	out = append(out, b.ring[b.next:]...)
	return append(out, b.ring[:b.next]...)
}

// Snapshot returns up to tail of the newest lines containing match (all
// lines when match is empty) and how many lines the ring has overwritten.
func (b *LogBuffer) Snapshot(tail int, match string) ([]string, uint64) {
	b.mu.Lock()
	lines, dropped := b.ordered(), b.dropped
	b.mu.Unlock()

	if match != "" {
		kept := lines[:0]
		for _, l := range lines {
			if strings.Contains(l, match) {
				kept = append(kept, l)
			}
		}
		lines = kept
	}
	if tail <= 0 {
		tail = defaultTail
	}
	if len(lines) > tail {
		lines = lines[len(lines)-tail:]
	}
	return lines, dropped
}

type LogsResponse struct {
	NowUTC  string   `json:"now_utc"`
	Dropped uint64   `json:"dropped"`
	Match   string   `json:"match,omitempty"`
	Lines   []string `json:"lines"`
}

// Handler serves the buffer. Query parameters: tail (1..5000), component
// (keeps lines logged as "<component>: ...") and format=text.
func (b *LogBuffer) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allowGet(w, r) {
			return
		}
		q := r.URL.Query()

		tail := defaultTail
		if s := strings.TrimSpace(q.Get("tail")); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil || v < 1 || v > maxTail {
				http.Error(w, fmt.Sprintf("tail must be an integer in [1,%d]", maxTail), http.StatusBadRequest)
				return
			}
			tail = v
		}
		var match string
		if c := strings.TrimSpace(q.Get("component")); c != "" {
			match = c + ": "
		}
		lines, dropped := b.Snapshot(tail, match)

		w.Header().Set("Cache-Control", "no-store")
		if q.Get("format") == "text" {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			if dropped > 0 {
				fmt.Fprintf(w, "# %d older lines dropped\n", dropped)
			}
			fmt.Fprint(w, strings.Join(lines, "\n"))
			if len(lines) > 0 {
				fmt.Fprint(w, "\n")
			}
			return
		}
		if lines == nil {
			lines = []string{}
		}
		writeJSON(w, LogsResponse{
			NowUTC:  time.Now().UTC().Format(time.RFC3339Nano),
			Dropped: dropped,
			Match:   match,
			Lines:   lines,
		})
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		http.Error(w, "encode: "+err.Error(), http.StatusInternalServerError)
	}
}

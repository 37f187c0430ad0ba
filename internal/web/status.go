package web

import (
	"sync/atomic"
	"time"
)

// Status collects what the daemon reports about itself. All methods are safe
// for concurrent use.
type Status struct {
	startUnixNano int64
	objectsSent   uint64
	sendErrors    uint64
	lastEmitNano  int64
	source        atomic.Value // string
	sinks         atomic.Value // []string
	sourceState   atomic.Value // func() any
}

func NewStatus() *Status {
	s := &Status{}
	atomic.StoreInt64(&s.startUnixNano, time.Now().UTC().UnixNano())
	s.source.Store("")
	s.sinks.Store([]string(nil))
	s.sourceState.Store(func() any { return nil })
	return s
}

// SetStatic records the configured input and outputs.
func (s *Status) SetStatic(source string, sinks []string) {
	s.source.Store(source)
	s.sinks.Store(append([]string(nil), sinks...))
}

// SetSourceState installs a probe for the input's own status, such as a
// gpsd client snapshot.
func (s *Status) SetSourceState(fn func() any) {
	if fn != nil {
		s.sourceState.Store(fn)
	}
}

// MarkEmit counts objects handed to the sinks and the sends that failed.
func (s *Status) MarkEmit(nowUTC time.Time, objects, failed int) {
	if nowUTC.IsZero() {
		nowUTC = time.Now().UTC()
	}
	atomic.StoreInt64(&s.lastEmitNano, nowUTC.UnixNano())
	atomic.AddUint64(&s.objectsSent, uint64(objects))
	atomic.AddUint64(&s.sendErrors, uint64(failed))
}

type StatusSnapshot struct {
	Service          string        `json:"service"`
	NowUTC           string        `json:"now_utc"`
	UptimeSec        int64         `json:"uptime_sec"`
	Session          string        `json:"session,omitempty"`
	Source           string        `json:"source"`
	Sinks            []string      `json:"sinks"`
	ObjectsSentTotal uint64        `json:"objects_sent_total"`
	SendErrorsTotal  uint64        `json:"send_errors_total"`
	LastEmitUTC      string        `json:"last_emit_utc,omitempty"`
	SourceState      any           `json:"source_state,omitempty"`
	Host             *HostSnapshot `json:"host,omitempty"`
}

// HostSnapshot describes the machine the daemon runs on. Only Hostname is
// filled outside Linux.
type HostSnapshot struct {
	Hostname      string  `json:"hostname,omitempty"`
	Kernel        string  `json:"kernel,omitempty"`
	UptimeSec     int64   `json:"uptime_sec,omitempty"`
	Load1         float64 `json:"load1"`
	Load5         float64 `json:"load5"`
	Load15        float64 `json:"load15"`
	MemTotalBytes uint64  `json:"mem_total_bytes,omitempty"`
	MemFreeBytes  uint64  `json:"mem_free_bytes,omitempty"`
	LastError     string  `json:"last_error,omitempty"`
}

func (s *Status) Snapshot(nowUTC time.Time) StatusSnapshot {
	if nowUTC.IsZero() {
		nowUTC = time.Now().UTC()
	}
	start := time.Unix(0, atomic.LoadInt64(&s.startUnixNano)).UTC()
	lastEmit := atomic.LoadInt64(&s.lastEmitNano)

	snap := StatusSnapshot{
		Service:          "gpsd-ng",
		NowUTC:           nowUTC.UTC().Format(time.RFC3339Nano),
		UptimeSec:        int64(nowUTC.Sub(start).Seconds()),
		Source:           s.source.Load().(string),
		Sinks:            s.sinks.Load().([]string),
		ObjectsSentTotal: atomic.LoadUint64(&s.objectsSent),
		SendErrorsTotal:  atomic.LoadUint64(&s.sendErrors),
		SourceState:      s.sourceState.Load().(func() any)(),
		Host:             snapshotHost(),
	}
	if snap.Sinks == nil {
		snap.Sinks = []string{}
	}
	if lastEmit != 0 {
		snap.LastEmitUTC = time.Unix(0, lastEmit).UTC().Format(time.RFC3339Nano)
	}
	return snap
}

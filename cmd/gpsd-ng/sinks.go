package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"gpsd-ng/internal/gps"
	"gpsd-ng/internal/gpsjson"
	"gpsd-ng/internal/web"
)

// sink takes one wire object without its line terminator.
type sink interface {
	Send(obj []byte) error
}

type lineWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lineWriter) Send(obj []byte) error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	if _, err := lw.w.Write(obj); err != nil {
		return err
	}
	_, err := io.WriteString(lw.w, "\n")
	return err
}

type namedSink struct {
	name string
	sink sink
}

// emitter encodes the session groups an update touched and fans the objects
// out to every sink.
type emitter struct {
	session *gps.Session
	policy  gps.Policy
	sinks   []namedSink
	logger  *log.Logger
	status  *web.Status
}

func (e *emitter) add(name string, s sink) {
	e.sinks = append(e.sinks, namedSink{name: name, sink: s})
}

func (e *emitter) names() []string {
	out := make([]string, len(e.sinks))
	for i, s := range e.sinks {
		out[i] = s.name
	}
	return out
}

// emit sends mask's objects. A failing sink does not stop the others.
func (e *emitter) emit(mask gps.Mask) error {
	if len(e.sinks) == 0 || mask.IsEmpty() {
		return nil
	}
	d := e.session.Snapshot()
	objs, err := gpsjson.Encode(&d, mask, e.policy)
	if err != nil {
		return fmt.Errorf("encode %s: %w", mask, err)
	}
	var errs []error
	for _, obj := range objs {
		for _, s := range e.sinks {
			if err := s.sink.Send(obj); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
			}
		}
	}
	if e.status != nil {
		e.status.MarkEmit(time.Now().UTC(), len(objs)*len(e.sinks), len(errs))
	}
	return errors.Join(errs...)
}

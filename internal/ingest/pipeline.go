// Package ingest runs framed receiver data through the protocol decoders and
// merges the results into a session.
package ingest

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"gpsd-ng/internal/ais"
	"gpsd-ng/internal/gps"
	"gpsd-ng/internal/nmea"
	"gpsd-ng/internal/rtcm2"
	"gpsd-ng/internal/rtcm3"
	"gpsd-ng/internal/subframe"
	"gpsd-ng/internal/zodiac"
)

// Protocol names the decoder a frame is meant for.
type Protocol string

const (
	RTCM2    Protocol = "rtcm2"
	RTCM3    Protocol = "rtcm3"
	AIS      Protocol = "ais"
	Subframe Protocol = "subframe"
	NMEA     Protocol = "nmea"
	Zodiac   Protocol = "zodiac"
)

var protocols = []Protocol{RTCM2, RTCM3, AIS, Subframe, NMEA, Zodiac}

// ErrUnknownProtocol is returned for frames no decoder claims.
var ErrUnknownProtocol = errors.New("ingest: unknown protocol")

// ParseProtocol accepts a protocol name in any case.
func ParseProtocol(s string) (Protocol, error) {
	p := Protocol(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range protocols {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProtocol, s)
}

// Frame is one complete message as delivered by a framer.
//
// Data is the protocol's natural unit: big-endian 30-bit word slots for
// RTCM2, a whole frame for RTCM3 and Zodiac, the armored payload field for
// AIS, 30 parity-stripped bytes for a subframe and a sentence for NMEA.
type Frame struct {
	Protocol Protocol
	Data     []byte
	// Pad is the AIS fill bit count.
	Pad int
	// SVID is the transmitting satellite of a subframe.
	SVID int
}

type Config struct {
	// Debug enables debugf output at or below this level.
	Debug int
	// Type24TTL bounds how long half of an AIS static report waits.
	Type24TTL time.Duration
	// DeriveMotion fills speed, track and climb from successive fixes when
	// the receiver does not report them.
	DeriveMotion bool
	// Registerer receives the pipeline metrics; nil skips registration.
	Registerer prometheus.Registerer
}

// Pipeline decodes frames into one session. It is not safe for concurrent
// Handle calls; the session it writes is.
type Pipeline struct {
	session *gps.Session
	logger  *log.Logger
	cfg     Config
	now     func() time.Time

	nmea      *nmea.Translator
	zodiac    *zodiac.Decoder
	assembler *ais.Assembler

	metrics *metrics
}

// New returns a pipeline writing to session, logging through the session's
// logger.
func New(session *gps.Session, cfg Config) (*Pipeline, error) {
	m := newMetrics()
	if cfg.Registerer != nil {
		if err := m.register(cfg.Registerer); err != nil {
			return nil, fmt.Errorf("ingest: register metrics: %w", err)
		}
	}
	return &Pipeline{
		session:   session,
		logger:    session.Logger(),
		cfg:       cfg,
		now:       time.Now,
		nmea:      nmea.NewTranslator(),
		zodiac:    zodiac.NewDecoder(),
		assembler: ais.NewAssembler(cfg.Type24TTL),
		metrics:   m,
	}, nil
}

func (p *Pipeline) debugf(level int, format string, args ...any) {
	if p.cfg.Debug >= level {
		p.logger.Printf(format, args...)
	}
}

// Handle decodes f and merges the result. It returns the groups the frame
// updated, which is what a publisher should encode. A frame that fails to
// decode leaves the session untouched.
func (p *Pipeline) Handle(f Frame) (gps.Mask, error) {
	in, mask, seen, err := p.decode(f)
	switch {
	case errors.Is(err, nmea.ErrUnsupported), errors.Is(err, zodiac.ErrUnsupported):
		p.metrics.skipped.WithLabelValues(string(f.Protocol)).Inc()
		p.debugf(2, "ingest: %s: %v", f.Protocol, err)
		return 0, nil
	case err != nil:
		p.metrics.errors.WithLabelValues(string(f.Protocol)).Inc()
		p.debugf(1, "ingest: %s: %v", f.Protocol, err)
		return 0, err
	}

	in.Online = float64(p.now().UnixNano()) / 1e9
	mask = mask.With(gps.Online)

	var merr error
	p.session.Update(func(d *gps.Data) {
		if d.Dev.Flags&seen != seen {
			in.Dev = d.Dev
			in.Dev.Flags |= seen
			mask = mask.With(gps.Device)
		}
		if p.cfg.DeriveMotion {
			mask = deriveMotion(&d.Fix, in, mask)
		}
		_, merr = d.Merge(in, mask)
		p.metrics.observe(d)
	})
	if merr != nil {
		p.metrics.errors.WithLabelValues(string(f.Protocol)).Inc()
		p.logger.Printf("ingest: %s: %v", f.Protocol, merr)
		return 0, merr
	}
	p.metrics.decoded.WithLabelValues(string(f.Protocol)).Inc()
	p.debugf(3, "ingest: %s: %s", f.Protocol, mask)
	return mask, nil
}

// decode dispatches to the protocol decoder and returns the partial record,
// its mask and the device flag the protocol sets.
func (p *Pipeline) decode(f Frame) (*gps.Data, gps.Mask, int, error) {
	switch f.Protocol {
	case NMEA:
		in, mask, err := p.nmea.Translate(string(f.Data))
		return in, mask, gps.SeenGPS, err
	case Zodiac:
		in, mask, err := p.zodiac.Decode(f.Data)
		return in, mask, gps.SeenGPS, err
	case RTCM2:
		m, err := rtcm2.Decode(f.Data)
		if err != nil {
			return nil, 0, 0, err
		}
		in, mask := aux(gps.RTCM2Report{Message: m}, "RTCM2")
		return in, mask, gps.SeenRTCM2, nil
	case RTCM3:
		m, err := rtcm3.Decode(f.Data)
		if err != nil {
			return nil, 0, 0, err
		}
		in, mask := aux(gps.RTCM3Report{Message: m}, "RTCM3")
		return in, mask, gps.SeenRTCM3, nil
	case AIS:
		buf, bitlen, err := ais.Dearmor(string(f.Data), f.Pad)
		if err != nil {
			return nil, 0, 0, err
		}
		m, err := ais.Decode(buf, bitlen)
		if err != nil {
			return nil, 0, 0, err
		}
		r := gps.AISReport{Message: m}
		if m.StaticData != nil {
			if joined, ok := p.assembler.Add(m); ok {
				r.Static = joined
				p.debugf(2, "ingest: ais: static data for %d complete", m.MMSI)
			}
		}
		in, mask := aux(r, "AIVDM")
		return in, mask, gps.SeenAIS, nil
	case Subframe:
		m, err := subframe.Decode(f.Data)
		if err != nil {
			return nil, 0, 0, err
		}
		m.TSVID = f.SVID
		in, mask := aux(gps.SubframeReport{Message: m}, "50B")
		return in, mask, gps.SeenGPS, nil
	}
	return nil, 0, 0, fmt.Errorf("%w: %q", ErrUnknownProtocol, f.Protocol)
}

func aux(r gps.Report, tag string) (*gps.Data, gps.Mask) {
	in := gps.NewData()
	in.Report = r
	in.Tag = tag
	return in, gps.MaskOf(gps.Packet).With(r.Field())
}

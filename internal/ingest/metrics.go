package ingest

import (
	"github.com/prometheus/client_golang/prometheus"

	"gpsd-ng/internal/gps"
)

type metrics struct {
	decoded *prometheus.CounterVec
	errors  *prometheus.CounterVec
	skipped *prometheus.CounterVec

	mode     prometheus.Gauge
	satsUsed prometheus.Gauge
	satsSeen prometheus.Gauge
	devFlags prometheus.Gauge
}

func newMetrics() *metrics {
	counter := func(name, help string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gpsd_ng",
			Subsystem: "ingest",
			Name:      name,
			Help:      help,
		}, []string{"protocol"})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "gpsd_ng", Name: name, Help: help})
	}
	return &metrics{
		decoded:  counter("decoded_total", "Frames decoded and merged."),
		errors:   counter("decode_errors_total", "Frames that failed to decode or merge."),
		skipped:  counter("skipped_total", "Well-formed frames with nothing to record."),
		mode:     gauge("fix_mode", "Current fix mode: 0 not seen, 1 no fix, 2 2D, 3 3D."),
		satsUsed: gauge("satellites_used", "Satellites used in the current solution."),
		satsSeen: gauge("satellites_visible", "Satellites in the current skyview."),
		devFlags: gauge("device_flags", "Kinds of data seen from the device, as gpsd SEEN_ flags."),
	}
}

func (m *metrics) register(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.decoded, m.errors, m.skipped, m.mode, m.satsUsed, m.satsSeen, m.devFlags} {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *metrics) observe(d *gps.Data) {
	m.mode.Set(float64(d.Fix.Mode))
	m.satsUsed.Set(float64(d.SatellitesUsed))
	m.satsSeen.Set(float64(d.Sky.Visible))
	m.devFlags.Set(float64(d.Dev.Flags))
}

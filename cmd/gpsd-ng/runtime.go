package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"gpsd-ng/internal/config"
	"gpsd-ng/internal/gps"
	"gpsd-ng/internal/gpsdclient"
	"gpsd-ng/internal/ingest"
	"gpsd-ng/internal/publish"
	"gpsd-ng/internal/replay"
	"gpsd-ng/internal/sim"
	"gpsd-ng/internal/udp"
	"gpsd-ng/internal/web"
)

// run wires config to a session, a source and the sinks, and blocks until
// the source is exhausted or ctx is done.
func run(ctx context.Context, cfg config.Config, logger *log.Logger, stdout io.Writer) error {
	logs := web.NewLogBuffer(2000)
	logger = log.New(io.MultiWriter(logger.Writer(), logs), logger.Prefix(), logger.Flags())
	session := gps.NewSession(logger)
	if cfg.Session.Device != "" {
		session.Update(func(d *gps.Data) {
			d.Dev.Path = cfg.Session.Device
			d.Dev.Bound()
		})
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	status := web.NewStatus()

	em, closeSinks, err := newEmitter(cfg, session)
	if err != nil {
		return err
	}
	defer closeSinks()
	if cfg.Output.Stdout {
		em.add("stdout", &lineWriter{w: stdout})
	}
	em.status = status
	status.SetStatic(sourceName(cfg), em.names())

	if cfg.Metrics.Enable {
		h := web.Handler(web.Deps{Status: status, Session: session, Logs: logs, Registry: reg})
		srvCtx, stop := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := web.Serve(srvCtx, cfg.Metrics.Listen, h); err != nil && srvCtx.Err() == nil {
				session.Logger().Printf("http server: %v", err)
			}
		}()
		defer func() {
			stop()
			<-done
		}()
		session.Logger().Printf("http on %s", cfg.Metrics.Listen)
	}

	switch {
	case cfg.GPSD.Enable:
		return runClient(ctx, cfg, session, em)
	case cfg.Input.Sim.Enable:
		return runSim(ctx, cfg, session, reg, em)
	}
	return runCapture(ctx, cfg, session, reg, em)
}

func sourceName(cfg config.Config) string {
	switch {
	case cfg.GPSD.Enable:
		return "gpsd " + cfg.GPSD.Addr
	case cfg.Input.Sim.Enable:
		return "sim"
	}
	return "capture " + cfg.Input.Capture
}

func newEmitter(cfg config.Config, session *gps.Session) (*emitter, func(), error) {
	em := &emitter{
		session: session,
		policy:  gps.Policy{Watcher: true, JSON: !cfg.Output.Legacy, Scaled: cfg.Output.Scaled},
		logger:  session.Logger(),
	}
	var closers []io.Closer
	closeAll := func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}

	if cfg.Output.UDP.Enable {
		b, err := udp.NewBroadcaster(cfg.Output.UDP.Dest)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, b)
		em.add("udp "+cfg.Output.UDP.Dest, b)
		em.logger.Printf("udp dest=%s", cfg.Output.UDP.Dest)
	}
	if cfg.Output.MQTT.Enable {
		m, err := publish.NewMQTT(publish.Config{
			Broker:   cfg.Output.MQTT.Broker,
			ClientID: cfg.Output.MQTT.ClientID,
			Topic:    cfg.Output.MQTT.Topic,
			QoS:      byte(cfg.Output.MQTT.QoS),
			Retain:   cfg.Output.MQTT.Retain,
		}, em.logger)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, m)
		em.add("mqtt", m)
	}
	return em, closeAll, nil
}

func runClient(ctx context.Context, cfg config.Config, session *gps.Session, em *emitter) error {
	w := cfg.GPSD.Watch
	client, err := gpsdclient.New(gpsdclient.Config{
		Addr:           cfg.GPSD.Addr,
		ReconnectDelay: cfg.GPSD.ReconnectDelay,
		DialTimeout:    cfg.GPSD.DialTimeout,
		Policy: gps.Policy{
			JSON:    w.JSON,
			NMEA:    w.NMEA,
			Raw:     w.Raw,
			Scaled:  w.Scaled,
			Timing:  w.Timing,
			Devpath: w.Device,
		},
	}, session)
	if err != nil {
		return err
	}
	if em.status != nil {
		em.status.SetSourceState(func() any { return client.Snapshot() })
	}
	if err := client.Start(ctx, em.emit); err != nil {
		return err
	}
	<-ctx.Done()
	client.Close()
	snap := client.Snapshot()
	em.logger.Printf("gpsd client: objects=%d rejected=%d", snap.Objects, snap.Rejected)
	return nil
}

// frameHandler builds the pipeline for a framed source and returns the
// per-frame callback plus a func that flushes the optional recording.
func frameHandler(cfg config.Config, session *gps.Session, reg prometheus.Registerer, em *emitter) (func(ingest.Frame) error, func(), error) {
	p, err := ingest.New(session, ingest.Config{
		Debug:        cfg.Session.Debug,
		Type24TTL:    cfg.AIS.Type24TTL,
		DeriveMotion: cfg.Session.DeriveMotion,
		Registerer:   reg,
	})
	if err != nil {
		return nil, nil, err
	}

	var rec *replay.Writer
	if cfg.Input.Record != "" {
		rec, err = replay.CreateWriter(cfg.Input.Record)
		if err != nil {
			return nil, nil, err
		}
	}
	done := func() {
		if rec != nil {
			if err := rec.Close(); err != nil {
				em.logger.Printf("record: %v", err)
			}
		}
	}

	handle := func(fr ingest.Frame) error {
		mask, err := p.Handle(fr)
		if err != nil {
			// The pipeline counts and logs decode failures.
			return nil
		}
		if rec != nil {
			if err := rec.WriteFrame(time.Now(), fr); err != nil {
				return fmt.Errorf("record: %w", err)
			}
		}
		if err := em.emit(mask); err != nil {
			em.logger.Printf("emit: %v", err)
		}
		return nil
	}
	return handle, done, nil
}

func runCapture(ctx context.Context, cfg config.Config, session *gps.Session, reg prometheus.Registerer, em *emitter) error {
	f, err := os.Open(cfg.Input.Capture)
	if err != nil {
		return err
	}
	recs, err := replay.NewReader(f).ReadAll()
	_ = f.Close()
	if err != nil {
		return err
	}

	handle, done, err := frameHandler(cfg, session, reg, em)
	if err != nil {
		return err
	}
	defer done()

	em.logger.Printf("replaying %s: %d records speed=%g loop=%v", cfg.Input.Capture, len(recs), cfg.Input.Speed, cfg.Input.Loop)
	err = replay.Play(ctx, recs, cfg.Input.Speed, cfg.Input.Loop, nil, handle)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func runSim(ctx context.Context, cfg config.Config, session *gps.Session, reg prometheus.Registerer, em *emitter) error {
	sc := cfg.Input.Sim
	r := sim.Receiver{
		CenterLatDeg: sc.CenterLatDeg,
		CenterLonDeg: sc.CenterLonDeg,
		AltMeters:    sc.AltMeters,
		RadiusMeters: sc.RadiusMeters,
		Period:       sc.Period,
	}
	handle, done, err := frameHandler(cfg, session, reg, em)
	if err != nil {
		return err
	}
	defer done()

	em.logger.Printf("sim: center=%.5f,%.5f radius=%gm interval=%s", sc.CenterLatDeg, sc.CenterLonDeg, sc.RadiusMeters, sc.Interval)
	err = r.Run(ctx, sc.Interval, handle)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

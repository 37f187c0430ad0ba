// Package web serves the daemon's HTTP surface: status, the current fix as
// wire objects, recent logs and Prometheus metrics.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gpsd-ng/internal/gps"
	"gpsd-ng/internal/gpsjson"
)

// Deps are the parts Handler exposes. Nil members drop their endpoints.
type Deps struct {
	Status   *Status
	Session  *gps.Session
	Logs     *LogBuffer
	Registry *prometheus.Registry
}

func Handler(d Deps) http.Handler {
	mux := http.NewServeMux()

	if d.Status != nil {
		mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
			if !allowGet(w, r) {
				return
			}
			snap := d.Status.Snapshot(time.Now().UTC())
			if d.Session != nil {
				snap.Session = d.Session.ID().String()
			}
			writeJSON(w, snap)
		})
	}

	if d.Session != nil {
		// The record as a gpsd client would see it, one object per set group.
		mux.HandleFunc("/api/fix", func(w http.ResponseWriter, r *http.Request) {
			if !allowGet(w, r) {
				return
			}
			policy := gps.Policy{JSON: true, Scaled: r.URL.Query().Get("scaled") == "1"}
			data := d.Session.Snapshot()
			objs, err := gpsjson.Encode(&data, data.Set, policy)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			out := make([]json.RawMessage, len(objs))
			for i, o := range objs {
				out[i] = o
			}
			writeJSON(w, out)
		})
	}

	if d.Logs != nil {
		mux.Handle("/api/logs", d.Logs.Handler())
	}

	if d.Registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{Registry: d.Registry}))
	}

	return mux
}

// Serve runs the HTTP server until ctx is done.
func Serve(ctx context.Context, listenAddr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       30 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MiB
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "cfg.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	return path
}

func requireErrEq(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %q, got nil", want)
	}
	if err.Error() != want {
		t.Fatalf("error=%q want %q", err.Error(), want)
	}
}

func TestLoad_RequiresSource(t *testing.T) {
	path := writeTempConfig(t, "session: {}\n")
	_, err := Load(path)
	requireErrEq(t, err, "one of input.capture, input.sim.enable or gpsd.enable is required")
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); !os.IsNotExist(err) {
		t.Fatalf("err=%v want not-exist", err)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeTempConfig(t, "input: [\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeTempConfig(t, "input:\n  capture: 'testdata/run.log'\nmetrics:\n  enable: true\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Input.Speed != 1 {
		t.Fatalf("speed=%v want 1", cfg.Input.Speed)
	}
	if cfg.GPSD.Addr != "127.0.0.1:2947" || cfg.GPSD.ReconnectDelay != 2*time.Second || cfg.GPSD.DialTimeout != 5*time.Second {
		t.Fatalf("gpsd=%+v", cfg.GPSD)
	}
	if cfg.AIS.Type24TTL != 5*time.Minute {
		t.Fatalf("type24_ttl=%s want 5m", cfg.AIS.Type24TTL)
	}
	if cfg.Metrics.Listen != ":9947" {
		t.Fatalf("metrics.listen=%q", cfg.Metrics.Listen)
	}
	// JSON is only forced on for the client.
	if cfg.GPSD.Watch.JSON {
		t.Fatalf("watch.json set without gpsd.enable")
	}
}

func TestLoad_FullGPSDConfig(t *testing.T) {
	path := writeTempConfig(t, `
session:
  debug: 2
  derive_motion: true
gpsd:
  enable: true
  addr: 'gps.local:2947'
  reconnect_delay: 500ms
  watch:
    scaled: true
    device: /dev/ttyUSB0
output:
  stdout: true
  udp:
    enable: true
    dest: '192.168.10.255:2947'
  mqtt:
    enable: true
    broker: 'tcp://broker:1883'
    qos: 1
ais:
  type24_ttl: 90s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Session.Debug != 2 || !cfg.Session.DeriveMotion {
		t.Fatalf("session=%+v", cfg.Session)
	}
	if cfg.GPSD.Addr != "gps.local:2947" || cfg.GPSD.ReconnectDelay != 500*time.Millisecond {
		t.Fatalf("gpsd=%+v", cfg.GPSD)
	}
	if !cfg.GPSD.Watch.JSON || !cfg.GPSD.Watch.Scaled || cfg.GPSD.Watch.Device != "/dev/ttyUSB0" {
		t.Fatalf("watch=%+v", cfg.GPSD.Watch)
	}
	if !cfg.Output.Stdout || cfg.Output.UDP.Dest != "192.168.10.255:2947" {
		t.Fatalf("output=%+v", cfg.Output)
	}
	if cfg.Output.MQTT.Topic != "gpsd" || cfg.Output.MQTT.QoS != 1 {
		t.Fatalf("mqtt=%+v", cfg.Output.MQTT)
	}
	if cfg.AIS.Type24TTL != 90*time.Second {
		t.Fatalf("type24_ttl=%s", cfg.AIS.Type24TTL)
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "capture and gpsd",
			yaml: "input:\n  capture: a.log\ngpsd:\n  enable: true\n",
			want: "only one of input.capture, input.sim.enable or gpsd.enable may be set",
		},
		{
			name: "capture and sim",
			yaml: "input:\n  capture: a.log\n  sim:\n    enable: true\n",
			want: "only one of input.capture, input.sim.enable or gpsd.enable may be set",
		},
		{
			name: "sim latitude",
			yaml: "input:\n  sim:\n    enable: true\n    center_lat_deg: 90\n",
			want: "input.sim.center_lat_deg must be within [-89,89]",
		},
		{
			name: "negative speed",
			yaml: "input:\n  capture: a.log\n  speed: -1\n",
			want: "input.speed must be > 0",
		},
		{
			name: "record with gpsd",
			yaml: "gpsd:\n  enable: true\ninput:\n  record: b.log\n",
			want: "input.record cannot be used with gpsd.enable",
		},
		{
			name: "record over capture",
			yaml: "input:\n  capture: a.log\n  record: a.log\n",
			want: "input.record must differ from input.capture",
		},
		{
			name: "negative debug",
			yaml: "session:\n  debug: -1\ninput:\n  capture: a.log\n",
			want: "session.debug must be >= 0",
		},
		{
			name: "raw out of range",
			yaml: "gpsd:\n  enable: true\n  watch:\n    raw: 3\n",
			want: "gpsd.watch.raw must be 0, 1 or 2",
		},
		{
			name: "udp without dest",
			yaml: "input:\n  capture: a.log\noutput:\n  udp:\n    enable: true\n",
			want: "output.udp.dest is required when output.udp.enable is true",
		},
		{
			name: "mqtt without broker",
			yaml: "input:\n  capture: a.log\noutput:\n  mqtt:\n    enable: true\n",
			want: "output.mqtt.broker is required when output.mqtt.enable is true",
		},
		{
			name: "mqtt qos",
			yaml: "input:\n  capture: a.log\noutput:\n  mqtt:\n    enable: true\n    broker: tcp://b:1883\n    qos: 3\n",
			want: "output.mqtt.qos must be 0, 1 or 2",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeTempConfig(t, tc.yaml))
			requireErrEq(t, err, tc.want)
		})
	}
}

func TestLoad_SimDefaults(t *testing.T) {
	path := writeTempConfig(t, "input:\n  record: sim.log\n  sim:\n    enable: true\n    center_lat_deg: 47.6\n    center_lon_deg: -122.3\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	sim := cfg.Input.Sim
	if sim.CenterLatDeg != 47.6 || sim.CenterLonDeg != -122.3 {
		t.Fatalf("sim=%+v", sim)
	}
	if sim.RadiusMeters != 1000 || sim.Period != 120*time.Second || sim.Interval != time.Second {
		t.Fatalf("sim defaults=%+v", sim)
	}
}

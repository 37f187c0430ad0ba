package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Session SessionConfig `yaml:"session"`
	Input   InputConfig   `yaml:"input"`
	GPSD    GPSDConfig    `yaml:"gpsd"`
	Output  OutputConfig  `yaml:"output"`
	AIS     AISConfig     `yaml:"ais"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type SessionConfig struct {
	// Debug is the log verbosity; 0 logs only problems.
	Debug int `yaml:"debug"`
	// Device is the path reported for frames from the capture.
	Device string `yaml:"device"`
	// DeriveMotion fills speed, track and climb from successive fixes.
	DeriveMotion bool `yaml:"derive_motion"`
}

type InputConfig struct {
	Capture string  `yaml:"capture"`
	Speed   float64 `yaml:"speed"`
	Loop    bool    `yaml:"loop"`
	// Record writes every frame that decoded to a new capture file.
	Record string    `yaml:"record"`
	Sim    SimConfig `yaml:"sim"`
}

// SimConfig drives the simulated receiver used when no capture is given.
type SimConfig struct {
	Enable       bool          `yaml:"enable"`
	CenterLatDeg float64       `yaml:"center_lat_deg"`
	CenterLonDeg float64       `yaml:"center_lon_deg"`
	AltMeters    float64       `yaml:"alt_m"`
	RadiusMeters float64       `yaml:"radius_m"`
	Period       time.Duration `yaml:"period"`
	Interval     time.Duration `yaml:"interval"`
}

type GPSDConfig struct {
	Enable         bool          `yaml:"enable"`
	Addr           string        `yaml:"addr"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	DialTimeout    time.Duration `yaml:"dial_timeout"`
	Watch          WatchConfig   `yaml:"watch"`
}

type WatchConfig struct {
	JSON   bool   `yaml:"json"`
	NMEA   bool   `yaml:"nmea"`
	Raw    int    `yaml:"raw"`
	Scaled bool   `yaml:"scaled"`
	Timing bool   `yaml:"timing"`
	Device string `yaml:"device"`
}

type OutputConfig struct {
	UDP    UDPConfig  `yaml:"udp"`
	MQTT   MQTTConfig `yaml:"mqtt"`
	Stdout bool       `yaml:"stdout"`
	// Legacy selects the pre-JSON O/Y reports for fixes and skyviews.
	Legacy bool `yaml:"legacy"`
	// Scaled emits AIS and subframe fields in physical units.
	Scaled bool `yaml:"scaled"`
}

type UDPConfig struct {
	Enable bool   `yaml:"enable"`
	Dest   string `yaml:"dest"`
}

type MQTTConfig struct {
	Enable   bool   `yaml:"enable"`
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
	QoS      int    `yaml:"qos"`
	Retain   bool   `yaml:"retain"`
}

type AISConfig struct {
	Type24TTL time.Duration `yaml:"type24_ttl"`
}

// MetricsConfig enables the HTTP listener serving /metrics and the /api
// status endpoints.
type MetricsConfig struct {
	Enable bool   `yaml:"enable"`
	Listen string `yaml:"listen"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.applyDefaults(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) applyDefaults() error {
	if cfg.Session.Debug < 0 {
		return fmt.Errorf("session.debug must be >= 0")
	}

	haveCapture := cfg.Input.Capture != ""
	sources := 0
	for _, on := range []bool{haveCapture, cfg.Input.Sim.Enable, cfg.GPSD.Enable} {
		if on {
			sources++
		}
	}
	if sources == 0 {
		return fmt.Errorf("one of input.capture, input.sim.enable or gpsd.enable is required")
	}
	if sources > 1 {
		return fmt.Errorf("only one of input.capture, input.sim.enable or gpsd.enable may be set")
	}

	if cfg.Input.Speed == 0 {
		cfg.Input.Speed = 1
	}
	if cfg.Input.Speed < 0 {
		return fmt.Errorf("input.speed must be > 0")
	}
	if cfg.Input.Record != "" {
		if cfg.GPSD.Enable {
			return fmt.Errorf("input.record cannot be used with gpsd.enable")
		}
		if cfg.Input.Record == cfg.Input.Capture {
			return fmt.Errorf("input.record must differ from input.capture")
		}
	}

	// Simulator defaults apply whether or not it is enabled.
	sim := &cfg.Input.Sim
	if sim.CenterLatDeg < -89 || sim.CenterLatDeg > 89 {
		return fmt.Errorf("input.sim.center_lat_deg must be within [-89,89]")
	}
	if sim.RadiusMeters <= 0 {
		sim.RadiusMeters = 1000
	}
	if sim.Period <= 0 {
		sim.Period = 120 * time.Second
	}
	if sim.Interval <= 0 {
		sim.Interval = 1 * time.Second
	}

	if cfg.GPSD.Addr == "" {
		cfg.GPSD.Addr = "127.0.0.1:2947"
	}
	if cfg.GPSD.ReconnectDelay <= 0 {
		cfg.GPSD.ReconnectDelay = 2 * time.Second
	}
	if cfg.GPSD.DialTimeout <= 0 {
		cfg.GPSD.DialTimeout = 5 * time.Second
	}
	if cfg.GPSD.Enable && !cfg.GPSD.Watch.JSON {
		// The client only understands JSON objects.
		cfg.GPSD.Watch.JSON = true
	}
	if cfg.GPSD.Watch.Raw < 0 || cfg.GPSD.Watch.Raw > 2 {
		return fmt.Errorf("gpsd.watch.raw must be 0, 1 or 2")
	}

	if cfg.Output.UDP.Enable && cfg.Output.UDP.Dest == "" {
		return fmt.Errorf("output.udp.dest is required when output.udp.enable is true")
	}
	if cfg.Output.MQTT.Enable {
		if cfg.Output.MQTT.Broker == "" {
			return fmt.Errorf("output.mqtt.broker is required when output.mqtt.enable is true")
		}
		if cfg.Output.MQTT.Topic == "" {
			cfg.Output.MQTT.Topic = "gpsd"
		}
		if cfg.Output.MQTT.QoS < 0 || cfg.Output.MQTT.QoS > 2 {
			return fmt.Errorf("output.mqtt.qos must be 0, 1 or 2")
		}
	}

	if cfg.AIS.Type24TTL <= 0 {
		cfg.AIS.Type24TTL = 5 * time.Minute
	}

	if cfg.Metrics.Enable && cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = ":9947"
	}
	return nil
}

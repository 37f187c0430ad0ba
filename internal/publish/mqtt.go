// Package publish forwards wire objects to an MQTT broker, one topic per
// object class.
package publish

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"gpsd-ng/internal/gpsjson"
)

// ErrNoClass is returned for a payload that names no object class.
var ErrNoClass = errors.New("publish: object has no class")

type Config struct {
	Broker   string
	ClientID string
	// Topic is the prefix; objects go to Topic/<class>.
	Topic  string
	QoS    byte
	Retain bool
	// Timeout bounds connect and each publish. Zero means 10s.
	Timeout time.Duration
}

// client is the part of mqtt.Client the publisher needs.
type client interface {
	Connect() mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTT publishes gpsjson objects.
type MQTT struct {
	cfg    Config
	logger *log.Logger
	client client
}

// NewMQTT connects to cfg.Broker. A nil logger means log.Default().
func NewMQTT(cfg Config, logger *log.Logger) (*MQTT, error) {
	if cfg.ClientID == "" {
		cfg.ClientID = fmt.Sprintf("gpsd-ng-%d", time.Now().Unix())
	}
	opts := mqtt.NewClientOptions().AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetConnectRetryInterval(10 * time.Second)
	return newMQTT(cfg, logger, mqtt.NewClient(opts))
}

func newMQTT(cfg Config, logger *log.Logger, c client) (*MQTT, error) {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.QoS > 2 {
		return nil, fmt.Errorf("publish: qos %d out of range", cfg.QoS)
	}
	cfg.Topic = strings.TrimSuffix(cfg.Topic, "/")
	if cfg.Topic == "" {
		cfg.Topic = "gpsd"
	}
	if err := wait(c.Connect(), cfg.Timeout); err != nil {
		return nil, fmt.Errorf("publish: connect %s: %w", cfg.Broker, err)
	}
	logger.Printf("publish: connected to %s as %s", cfg.Broker, cfg.ClientID)
	return &MQTT{cfg: cfg, logger: logger, client: c}, nil
}

// Topic returns the topic an object of class is published on.
func (m *MQTT) Topic(class string) string {
	return m.cfg.Topic + "/" + class
}

// Send publishes one object.
func (m *MQTT) Send(obj []byte) error {
	class := gpsjson.Class(obj)
	if class == "" {
		return ErrNoClass
	}
	topic := m.Topic(class)
	if err := wait(m.client.Publish(topic, m.cfg.QoS, m.cfg.Retain, obj), m.cfg.Timeout); err != nil {
		return fmt.Errorf("publish: %s: %w", topic, err)
	}
	return nil
}

func (m *MQTT) Close() error {
	m.client.Disconnect(250)
	return nil
}

func wait(tk mqtt.Token, timeout time.Duration) error {
	if !tk.WaitTimeout(timeout) {
		return errors.New("timed out")
	}
	return tk.Error()
}

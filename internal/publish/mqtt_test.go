package publish

import (
	"errors"
	"io"
	"log"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type fakeToken struct {
	err     error
	pending bool
}

func (t *fakeToken) Wait() bool                     { return !t.pending }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return !t.pending }
func (t *fakeToken) Error() error                   { return t.err }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if !t.pending {
		close(ch)
	}
	return ch
}

type published struct {
	topic   string
	qos     byte
	retain  bool
	payload string
}

type fakeClient struct {
	connectErr error
	publishErr error
	stall      bool
	sent       []published
	closed     bool
}

func (c *fakeClient) Connect() mqtt.Token { return &fakeToken{err: c.connectErr} }

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.sent = append(c.sent, published{topic, qos, retained, string(payload.([]byte))})
	return &fakeToken{err: c.publishErr, pending: c.stall}
}

func (c *fakeClient) Disconnect(uint) { c.closed = true }

func quiet() *log.Logger { return log.New(io.Discard, "", 0) }

func TestMQTT_SendRoutesByClass(t *testing.T) {
	fc := &fakeClient{}
	m, err := newMQTT(Config{Broker: "tcp://x:1883", Topic: "nav/gps/", QoS: 1, Retain: true}, quiet(), fc)
	if err != nil {
		t.Fatalf("newMQTT: %v", err)
	}
	defer m.Close()

	for _, obj := range []string{`{"class":"TPV","mode":3}`, `{"class":"SKY"}`, "GPSD,O=?"} {
		if err := m.Send([]byte(obj)); err != nil {
			t.Fatalf("Send(%s): %v", obj, err)
		}
	}
	want := []string{"nav/gps/TPV", "nav/gps/SKY", "nav/gps/GPSD"}
	if len(fc.sent) != len(want) {
		t.Fatalf("sent=%v", fc.sent)
	}
	for i, p := range fc.sent {
		if p.topic != want[i] || p.qos != 1 || !p.retain {
			t.Fatalf("sent[%d]=%+v want topic %s", i, p, want[i])
		}
	}
	if fc.sent[0].payload != `{"class":"TPV","mode":3}` {
		t.Fatalf("payload=%q", fc.sent[0].payload)
	}
}

func TestMQTT_DefaultTopic(t *testing.T) {
	m, err := newMQTT(Config{}, quiet(), &fakeClient{})
	if err != nil {
		t.Fatalf("newMQTT: %v", err)
	}
	if got := m.Topic("TPV"); got != "gpsd/TPV" {
		t.Fatalf("topic=%q", got)
	}
}

func TestMQTT_Errors(t *testing.T) {
	connErr := errors.New("refused")
	if _, err := newMQTT(Config{}, quiet(), &fakeClient{connectErr: connErr}); !errors.Is(err, connErr) {
		t.Fatalf("err=%v want %v", err, connErr)
	}
	if _, err := newMQTT(Config{QoS: 3}, quiet(), &fakeClient{}); err == nil {
		t.Fatalf("qos 3 accepted")
	}

	pubErr := errors.New("broker gone")
	fc := &fakeClient{publishErr: pubErr}
	m, err := newMQTT(Config{}, quiet(), fc)
	if err != nil {
		t.Fatalf("newMQTT: %v", err)
	}
	if err := m.Send([]byte(`{"class":"TPV"}`)); !errors.Is(err, pubErr) {
		t.Fatalf("err=%v want %v", err, pubErr)
	}
	if err := m.Send([]byte(`{"mode":1}`)); !errors.Is(err, ErrNoClass) {
		t.Fatalf("err=%v want ErrNoClass", err)
	}

	fc.publishErr, fc.stall = nil, true
	if err := m.Send([]byte(`{"class":"TPV"}`)); err == nil {
		t.Fatalf("stalled publish reported success")
	}
}

func TestMQTT_Close(t *testing.T) {
	fc := &fakeClient{}
	m, err := newMQTT(Config{}, quiet(), fc)
	if err != nil {
		t.Fatalf("newMQTT: %v", err)
	}
	if err := m.Close(); err != nil || !fc.closed {
		t.Fatalf("Close err=%v closed=%v", err, fc.closed)
	}
}

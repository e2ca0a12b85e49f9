package sink

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/HugooB/airquality-home/internal/reading"
)

// MQTT publishes envelopes as JSON to a single topic, for deployments that
// feed the time-series store through a broker instead of writing directly.
type MQTT struct {
	client mqtt.Client
	topic  string
}

// mqttPoint is the wire shape of one published envelope.
type mqttPoint struct {
	Measurement string             `json:"measurement"`
	Tags        map[string]string  `json:"tags"`
	Fields      map[string]float64 `json:"fields"`
	Time        time.Time          `json:"time"`
}

// NewMQTT connects to the broker immediately; Ping only verifies the
// connection still stands.
func NewMQTT(broker, clientID, topic string) (*MQTT, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return &MQTT{client: c, topic: topic}, nil
}

// Ping reports whether the broker connection is alive.
func (s *MQTT) Ping(time.Duration) error {
	if !s.client.IsConnected() {
		return fmt.Errorf("mqtt: not connected")
	}
	return nil
}

// Write publishes the envelope as one retained JSON message.
func (s *MQTT) Write(env *reading.Envelope) error {
	payload, err := json.Marshal(mqttPoint{
		Measurement: env.Measurement,
		Tags:        env.Tags,
		Fields:      env.Fields,
		Time:        env.Time,
	})
	if err != nil {
		return fmt.Errorf("mqtt marshal: %w", err)
	}

	if token := s.client.Publish(s.topic, 0, true, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt publish: %w", token.Error())
	}
	return nil
}

// Close disconnects from the broker.
func (s *MQTT) Close() error {
	s.client.Disconnect(250)
	return nil
}

// Package status publishes live run progress over MQTT so a dashboard or
// bench console can follow an acquisition without touching the CSV.
package status

import (
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/enose-collector/internal/runner"
)

// Publisher forwards runner rows and dwell notices to an MQTT broker.
// It satisfies runner.Observer.
type Publisher struct {
	client mqtt.Client
	topic  string
}

type dwellMessage struct {
	Event   string  `json:"event"`
	Seconds float64 `json:"seconds"`
}

// Connect dials the broker (e.g. "tcp://localhost:1883") and returns a
// publisher rooted at topic.
func Connect(broker, topic, clientID string) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to mqtt broker %s: %w", broker, token.Error())
	}
	log.Info().Str("broker", broker).Str("topic", topic).Msg("Status publisher connected")
	return &Publisher{client: client, topic: topic}, nil
}

// Row publishes the row as JSON on <topic>/row. Publish failures are
// logged and dropped; telemetry never stalls an acquisition.
func (p *Publisher) Row(r runner.Row) {
	p.publish(p.topic+"/row", r)
}

// Dwell publishes an inter-cycle dwell notice on <topic>/dwell.
func (p *Publisher) Dwell(seconds float64) {
	p.publish(p.topic+"/dwell", dwellMessage{Event: "dwell", Seconds: seconds})
}

func (p *Publisher) publish(topic string, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("Failed to encode status payload")
		return
	}
	if token := p.client.Publish(topic, 0, true, payload); token.Wait() && token.Error() != nil {
		log.Warn().Err(token.Error()).Str("topic", topic).Msg("Failed to publish status payload")
	}
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}

// Package push receives metrics events from the backend over a persistent WebSocket.
package push

import (
	"encoding/json"
)

// Event names on the push channel
const (
	EventMetricsUpdate  = "metrics_update"
	EventRequestMetrics = "request_metrics"
)

// Envelope is one JSON text frame on the push channel.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope encodes data under the given event name.
func NewEnvelope(event string, data interface{}) (Envelope, error) {
	env := Envelope{Event: event}
	if data == nil {
		return env, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	env.Data = raw
	return env, nil
}

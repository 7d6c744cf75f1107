package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Envelope is the wire representation of a domain event.
type Envelope struct {
	ID            string          `json:"event_id"`
	Type          string          `json:"event_type"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Data          json.RawMessage `json:"data"`
}

// Marshal encodes event as an Envelope. The event's exported fields become
// the envelope data.
func Marshal(event DomainEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal %s data: %w", event.EventType(), err)
	}

	env := Envelope{
		ID:            event.EventID(),
		Type:          event.EventType(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		OccurredAt:    event.OccurredAt(),
		Data:          data,
	}

	out, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", event.EventType(), err)
	}
	return out, nil
}

// Unmarshal decodes an Envelope produced by Marshal.
func Unmarshal(payload []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Envelope{}, fmt.Errorf("unmarshal event envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("unmarshal event envelope: missing event_type")
	}
	return env, nil
}

package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// QueryMessage is the JSON payload of a source-topic message.
type QueryMessage struct {
	ID         string    `json:"id,omitempty"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	AltitudeKm float64   `json:"altitude_km"`
	Epoch      time.Time `json:"epoch"`
	Kp         *float64  `json:"kp,omitempty"`
	Spectrum   Spectrum  `json:"spectrum,omitempty"`
}

// Query returns the query part of the message.
func (m QueryMessage) Query() Query {
	return Query{
		Latitude:   m.Latitude,
		Longitude:  m.Longitude,
		AltitudeKm: m.AltitudeKm,
		Epoch:      m.Epoch,
	}
}

// Assessment is the transmission function for one query together with the
// environment classification.
type Assessment struct {
	ID         string    `json:"id"`
	Query      Query     `json:"query"`
	Result     Result    `json:"result"`
	Activity   Activity  `json:"activity"`
	Level      Level     `json:"level"`
	ComputedAt time.Time `json:"computed_at"`
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// ParseRawEvent decodes a source-topic message. When the message carries no
// id, one is derived from the key, or from the query itself.
func ParseRawEvent(raw RawEvent) (QueryMessage, error) {
	var msg QueryMessage
	if err := json.Unmarshal(raw.Value, &msg); err != nil {
		return QueryMessage{}, fmt.Errorf("parse raw event: %w", err)
	}
	if msg.Epoch.IsZero() {
		msg.Epoch = raw.Timestamp
	}
	if msg.ID == "" {
		if len(raw.Key) > 0 {
			msg.ID = string(raw.Key)
		} else {
			msg.ID = GenerateID(msg.Query())
		}
	}
	return msg, nil
}

// GenerateID produces a deterministic ID from the query's key fields, so
// replaying a query produces the same key on the sink topic.
func GenerateID(q Query) string {
	input := fmt.Sprintf("%.4f|%.4f|%.3f|%s", q.Latitude, q.Longitude, q.AltitudeKm, q.Epoch.UTC().Format(time.RFC3339))
	hash := sha256.Sum256([]byte(input))
	return "gtf-" + hex.EncodeToString(hash[:8])
}

// SerializeAssessment marshals an Assessment into an OutputEvent.
func SerializeAssessment(a Assessment) (OutputEvent, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize assessment: %w", err)
	}
	return OutputEvent{
		Key:   []byte(a.ID),
		Value: data,
		Headers: map[string]string{
			"level":       a.Level.String(),
			"computed_at": a.ComputedAt.Format(time.RFC3339),
		},
	}, nil
}

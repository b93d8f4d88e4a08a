package kafka

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// MutationEvent is a marketplace mutation consumed from the input topic.
// Matching reacts to request.created, request.updated, item.created and
// match.declined.
type MutationEvent struct {
	EventType  string         `json:"event_type" validate:"required"`
	EntityID   string         `json:"entity_id" validate:"required"`
	ActorID    string         `json:"actor_id,omitempty"`
	BorrowerID string         `json:"borrower_id,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	OccurredAt time.Time      `json:"occurred_at,omitempty"`
}

// Validate checks the required envelope fields.
func (e *MutationEvent) Validate() error {
	return validate.Struct(e)
}

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string

	// Parsed content
	Mutation *MutationEvent
}

// ParseMutation parses and validates the message value as a mutation event.
func (m *IncomingMessage) ParseMutation() error {
	var evt MutationEvent
	if err := json.Unmarshal(m.Value, &evt); err != nil {
		return err
	}
	if err := evt.Validate(); err != nil {
		return err
	}
	m.Mutation = &evt
	return nil
}

// GetEventType returns the event type, preferring the parsed payload over the
// header.
func (m *IncomingMessage) GetEventType() string {
	if m.Mutation != nil {
		return m.Mutation.EventType
	}
	return m.Headers["event_type"]
}

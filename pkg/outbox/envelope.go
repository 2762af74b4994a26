package outbox

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CurrentEnvelopeVersion is written on every new event. Consumers reject
// anything newer than they understand.
const CurrentEnvelopeVersion = 1

// ActorRef identifies the shopper that caused the event.
type ActorRef struct {
	UserID uuid.UUID `json:"userId"`
}

// PayloadEnvelope wraps the domain payload stored in outbox_events.payload.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

func newEnvelope(event DomainEvent) (PayloadEnvelope, error) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return PayloadEnvelope{}, fmt.Errorf("marshal %s data: %w", event.EventType, err)
	}
	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	version := event.Version
	if version <= 0 {
		version = CurrentEnvelopeVersion
	}
	return PayloadEnvelope{
		Version:    version,
		EventID:    uuid.NewString(),
		OccurredAt: occurredAt,
		Actor:      event.Actor,
		Data:       data,
	}, nil
}

// DecodeEnvelope parses a stored payload and checks the fields every
// consumer relies on.
func DecodeEnvelope(raw []byte) (PayloadEnvelope, error) {
	var envelope PayloadEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return PayloadEnvelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if envelope.Version <= 0 || envelope.Version > CurrentEnvelopeVersion {
		return PayloadEnvelope{}, fmt.Errorf("unsupported envelope version %d", envelope.Version)
	}
	if envelope.EventID == "" {
		return PayloadEnvelope{}, errors.New("envelope missing eventId")
	}
	trimmed := bytes.TrimSpace(envelope.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return PayloadEnvelope{}, errors.New("envelope missing data")
	}
	return envelope, nil
}

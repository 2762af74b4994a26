package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
)

// EventDescriptor links an event type to its aggregate, topic and payload type.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() any
}

// ResolvedEvent is a decoded outbox row ready to publish.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

func describe[T any](eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType, topic string) EventDescriptor {
	return EventDescriptor{
		EventType:      eventType,
		AggregateType:  aggregate,
		Topic:          topic,
		PayloadFactory: func() any { return new(T) },
	}
}

// NewEventRegistry builds the registry with the configured topic names.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	switch {
	case cfg.OrdersTopic == "":
		return nil, errors.New("orders topic is required")
	case cfg.UsersTopic == "":
		return nil, errors.New("users topic is required")
	}

	descriptors := []EventDescriptor{
		describe[payloads.OrderPlacedEvent](enums.EventOrderPlaced, enums.AggregateOrder, cfg.OrdersTopic),
		describe[payloads.UserRegisteredEvent](enums.EventUserRegistered, enums.AggregateUser, cfg.UsersTopic),
	}
	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor, len(descriptors))}
	for _, d := range descriptors {
		reg.entries[d.EventType] = d
	}
	return reg, nil
}

// Topics lists every distinct topic, sorted.
func (r *EventRegistry) Topics() []string {
	set := make(map[string]struct{}, len(r.entries))
	for _, d := range r.entries {
		set[d.Topic] = struct{}{}
	}
	return slices.Sorted(maps.Keys(set))
}

// Resolve checks the row against its descriptor and decodes the typed payload.
// Every failure is non-retryable: a row that cannot be decoded now never will be.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, err := r.descriptorFor(event)
	if err != nil {
		return nil, NewNonRetryableError(err)
	}

	envelope, err := outbox.DecodeEnvelope(event.Payload)
	if err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("%s: %w", event.EventType, err))
	}

	payload := desc.PayloadFactory()
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}

	return &ResolvedEvent{Descriptor: desc, Envelope: envelope, Payload: payload}, nil
}

func (r *EventRegistry) descriptorFor(event models.OutboxEvent) (EventDescriptor, error) {
	desc, ok := r.entries[event.EventType]
	switch {
	case !ok:
		return EventDescriptor{}, fmt.Errorf("unsupported event type %s", event.EventType)
	case desc.AggregateType != event.AggregateType:
		return EventDescriptor{}, fmt.Errorf("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType)
	case event.AggregateID == uuid.Nil:
		return EventDescriptor{}, errors.New("missing aggregate_id")
	}
	return desc, nil
}

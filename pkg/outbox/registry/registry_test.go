package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

func TestEventRegistryResolveOrderPlaced(t *testing.T) {
	reg := newTestEventRegistry(t)

	orderID := uuid.New()
	productID := uuid.New()
	payloadBytes := mustMarshal(t, payloads.OrderPlacedEvent{
		OrderID:     orderID,
		UserID:      uuid.New(),
		AddressID:   uuid.New(),
		TotalAmount: decimal.RequireFromString("59.98"),
		Items: []payloads.OrderPlacedItem{
			{ProductID: productID, Size: "M", Quantity: 2, Price: decimal.RequireFromString("29.99")},
		},
	})

	event := models.OutboxEvent{
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Payload:       mustEnvelope(t, payloadBytes),
	}

	resolved, err := reg.Resolve(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Descriptor.Topic != "orders-topic" {
		t.Fatalf("unexpected topic %q", resolved.Descriptor.Topic)
	}
	payload, ok := resolved.Payload.(*payloads.OrderPlacedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", resolved.Payload)
	}
	if payload.OrderID != orderID || len(payload.Items) != 1 || payload.Items[0].ProductID != productID {
		t.Fatalf("payload mismatch %+v", payload)
	}
	if !payload.TotalAmount.Equal(decimal.RequireFromString("59.98")) {
		t.Fatalf("unexpected total %s", payload.TotalAmount)
	}
	if resolved.Envelope.EventID == "" {
		t.Fatalf("envelope missing event id")
	}
	if resolved.Envelope.OccurredAt.IsZero() {
		t.Fatalf("envelope missing occurred_at")
	}
}

func TestEventRegistryResolveUserRegistered(t *testing.T) {
	reg := newTestEventRegistry(t)

	userID := uuid.New()
	event := models.OutboxEvent{
		EventType:     enums.EventUserRegistered,
		AggregateType: enums.AggregateUser,
		AggregateID:   userID,
		Payload:       mustEnvelope(t, mustMarshal(t, payloads.UserRegisteredEvent{UserID: userID, Email: "a@b.co"})),
	}

	resolved, err := reg.Resolve(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Descriptor.Topic != "users-topic" {
		t.Fatalf("unexpected topic %q", resolved.Descriptor.Topic)
	}
	payload := resolved.Payload.(*payloads.UserRegisteredEvent)
	if payload.Email != "a@b.co" {
		t.Fatalf("unexpected email %q", payload.Email)
	}
}

func TestEventRegistryRejectsBadRows(t *testing.T) {
	reg := newTestEventRegistry(t)

	cases := map[string]models.OutboxEvent{
		"unknown event": {
			EventType:     enums.OutboxEventType("order_shipped"),
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Payload:       mustEnvelope(t, []byte(`{}`)),
		},
		"aggregate mismatch": {
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateUser,
			AggregateID:   uuid.New(),
			Payload:       mustEnvelope(t, []byte(`{"orderId":"00000000-0000-0000-0000-000000000000"}`)),
		},
		"missing aggregate id": {
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.Nil,
			Payload:       mustEnvelope(t, []byte(`{}`)),
		},
		"null payload": {
			EventType:     enums.EventUserRegistered,
			AggregateType: enums.AggregateUser,
			AggregateID:   uuid.New(),
			Payload:       mustEnvelope(t, []byte("null")),
		},
		"broken envelope": {
			EventType:     enums.EventUserRegistered,
			AggregateType: enums.AggregateUser,
			AggregateID:   uuid.New(),
			Payload:       json.RawMessage(`{"data":`),
		},
	}

	for name, event := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := reg.Resolve(event)
			if err == nil {
				t.Fatalf("expected error")
			}
			var nonRetry NonRetryableError
			if !errors.As(err, &nonRetry) {
				t.Fatalf("expected non-retryable error, got %T", err)
			}
		})
	}
}

func TestNewEventRegistryRequiresTopics(t *testing.T) {
	if _, err := NewEventRegistry(config.PubSubConfig{UsersTopic: "users"}); err == nil {
		t.Fatalf("expected missing orders topic error")
	}
	if _, err := NewEventRegistry(config.PubSubConfig{OrdersTopic: "orders"}); err == nil {
		t.Fatalf("expected missing users topic error")
	}
}

func TestEventRegistryTopics(t *testing.T) {
	reg := newTestEventRegistry(t)
	topics := reg.Topics()
	if len(topics) != 2 || topics[0] != "orders-topic" || topics[1] != "users-topic" {
		t.Fatalf("unexpected topics %v", topics)
	}
}

func newTestEventRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	reg, err := NewEventRegistry(config.PubSubConfig{
		OrdersTopic: "orders-topic",
		UsersTopic:  "users-topic",
	})
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return reg
}

func mustMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return data
}

func mustEnvelope(t *testing.T, payload []byte) json.RawMessage {
	t.Helper()
	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return data
}

package main

import (
	"context"
	"errors"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/registry"
)

type publisherFactory func(topic string) publisher

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

// buildMessage forwards the stored envelope untouched. Attributes let
// subscribers filter without decoding the body.
func buildMessage(event models.OutboxEvent, envelope outbox.PayloadEnvelope, ordered bool) *gcppubsub.Message {
	msg := &gcppubsub.Message{
		Data: event.Payload,
		Attributes: map[string]string{
			"event_id":       envelope.EventID,
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
			"created_at":     event.CreatedAt.Format(time.RFC3339Nano),
		},
	}
	if ordered {
		msg.OrderingKey = event.AggregateID.String()
	}
	return msg
}

// classifyPublishError marks broker rejections that no retry can fix.
func classifyPublishError(err error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.InvalidArgument, codes.NotFound, codes.PermissionDenied, codes.FailedPrecondition:
		return registry.NewNonRetryableError(err)
	}
	return err
}

func newGCPPublisher(p *gcppubsub.Publisher) publisher {
	if p == nil {
		return nil
	}
	return &gcpPublisher{Publisher: p}
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return &gcpPublishResult{
		PublishResult: p.Publisher.Publish(ctx, msg),
		publisher:     p.Publisher,
		orderingKey:   msg.OrderingKey,
	}
}

type gcpPublishResult struct {
	*gcppubsub.PublishResult
	publisher   *gcppubsub.Publisher
	orderingKey string
}

// Get waits for the server ack. A failed ordered publish pauses its key, so
// the key is resumed for the next attempt.
func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	id, err := r.PublishResult.Get(ctx)
	if err != nil && r.orderingKey != "" {
		r.publisher.ResumePublish(r.orderingKey)
	}
	return id, err
}

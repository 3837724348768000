// Package socket streams grant and namespace mutation events to clients
// over websockets, with redis pub/sub as the fanout bus.
package socket

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/namespaced/namespaced/core"
)

var tracer = otel.Tracer("socket")

type publisher struct {
	rdb *redis.Client
}

// NewPublisher creates the redis-backed event publisher
func NewPublisher(rdb *redis.Client) core.Publisher {
	return &publisher{rdb: rdb}
}

// Publish sends the event to its namespace channel. Publishing is
// best-effort from the caller's point of view; a lost event never rolls
// back the mutation it describes.
func (p *publisher) Publish(ctx context.Context, event core.Event) error {
	ctx, span := tracer.Start(ctx, "Socket.Publisher.Publish")
	defer span.End()

	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event")
	}

	err = p.rdb.Publish(ctx, event.Channel(), payload).Err()
	if err != nil {
		return errors.Wrap(err, "failed to publish event")
	}

	return nil
}

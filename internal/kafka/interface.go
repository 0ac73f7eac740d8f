package kafka

import (
	"context"

	"github.com/supdesk/relay-service/internal/domain"
)

// FeedProducer publishes relayed messages to the feed topic consumed by
// downstream analytics. Publishing is best-effort and never affects the
// ack returned to the sender.
type FeedProducer interface {
	ProduceMessage(ctx context.Context, msg *domain.Message) error
	Close() error
}

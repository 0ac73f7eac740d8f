package store

import (
	"context"

	"github.com/supdesk/relay-service/internal/domain"
)

// MessageStore owns persisted messages. Append must complete before any
// delivery is attempted for the message.
type MessageStore interface {
	// Append durably records msg and returns the store-assigned id,
	// unique and monotonic within the store. The caller has already
	// resolved RecipientID to a concrete value.
	Append(ctx context.Context, msg *domain.Message) (int64, error)

	// QueryByUser returns every message where userID is sender or
	// recipient, ordered by timestamp ascending, ties broken by id
	// ascending.
	QueryByUser(ctx context.Context, userID string) ([]domain.Message, error)

	Close() error
}

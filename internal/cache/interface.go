package cache

import (
	"context"
	"errors"

	"github.com/supdesk/relay-service/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// MessageCache is a read cache in front of MessageStore.QueryByUser.
// Entries are invalidated whenever a new message lands for the user.
type MessageCache interface {
	BuildKey(userID string) string
	Get(ctx context.Context, key string) ([]domain.Message, error)
	Set(ctx context.Context, key string, messages []domain.Message) error
	Invalidate(ctx context.Context, userIDs ...string) error
	Close() error
}

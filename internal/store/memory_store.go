package store

import (
	"context"
	"sort"
	"sync"

	"github.com/supdesk/relay-service/internal/domain"
)

// MemoryStore is the in-process MessageStore used by the memory driver
// and by tests. Appends are serialized by its lock, so per-recipient
// delivery order matches append completion order.
type MemoryStore struct {
	mu       sync.RWMutex
	messages []domain.Message
	ids      *snowflake
}

func NewMemoryStore(machineID int64) (*MemoryStore, error) {
	ids, err := newSnowflake(machineID)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{ids: ids}, nil
}

func (s *MemoryStore) Append(ctx context.Context, msg *domain.Message) (int64, error) {
	id, err := s.ids.next()
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	msg.ID = id
	s.messages = append(s.messages, *msg)
	s.mu.Unlock()

	return id, nil
}

func (s *MemoryStore) QueryByUser(ctx context.Context, userID string) ([]domain.Message, error) {
	s.mu.RLock()
	var out []domain.Message
	for _, m := range s.messages {
		if m.SenderID == userID || m.RecipientID == userID {
			out = append(out, m)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

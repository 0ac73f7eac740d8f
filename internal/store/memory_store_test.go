package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/supdesk/relay-service/internal/domain"
)

func appendMessage(t *testing.T, s *MemoryStore, sender, recipient, content string) domain.Message {
	t.Helper()
	msg := &domain.Message{
		SenderID:    sender,
		SenderName:  sender,
		RecipientID: recipient,
		Content:     content,
		SenderRole:  domain.RoleCustomer,
		Timestamp:   time.Now().UTC(),
	}
	_, err := s.Append(context.Background(), msg)
	require.NoError(t, err)
	return *msg
}

func TestMemoryStore_AppendAssignsMonotonicIDs(t *testing.T) {
	req := require.New(t)
	s, err := NewMemoryStore(0)
	req.NoError(err)

	var last int64
	for i := 0; i < 100; i++ {
		msg := appendMessage(t, s, "u1", "manager", "hello")
		req.Greater(msg.ID, last)
		last = msg.ID
	}
}

func TestMemoryStore_QueryByUserFiltersParticipants(t *testing.T) {
	req := require.New(t)
	s, err := NewMemoryStore(0)
	req.NoError(err)

	sent := appendMessage(t, s, "u1", "manager", "from u1")
	received := appendMessage(t, s, "manager", "u1", "to u1")
	appendMessage(t, s, "u2", "manager", "unrelated")

	messages, err := s.QueryByUser(context.Background(), "u1")
	req.NoError(err)
	req.Len(messages, 2)
	req.Equal(sent.ID, messages[0].ID)
	req.Equal(received.ID, messages[1].ID)

	messages, err = s.QueryByUser(context.Background(), "manager")
	req.NoError(err)
	req.Len(messages, 3)
}

func TestMemoryStore_QueryByUserOrdering(t *testing.T) {
	req := require.New(t)
	s, err := NewMemoryStore(0)
	req.NoError(err)

	base := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

	// Appended out of timestamp order on purpose.
	later := &domain.Message{SenderID: "u1", RecipientID: "manager", Content: "later", SenderRole: domain.RoleCustomer, Timestamp: base.Add(time.Minute)}
	_, err = s.Append(context.Background(), later)
	req.NoError(err)

	earlier := &domain.Message{SenderID: "manager", RecipientID: "u1", Content: "earlier", SenderRole: domain.RoleManager, Timestamp: base}
	_, err = s.Append(context.Background(), earlier)
	req.NoError(err)

	messages, err := s.QueryByUser(context.Background(), "u1")
	req.NoError(err)
	req.Len(messages, 2)
	req.Equal("earlier", messages[0].Content)
	req.Equal("later", messages[1].Content)

	for i := 1; i < len(messages); i++ {
		req.False(messages[i].Timestamp.Before(messages[i-1].Timestamp))
	}
}

func TestMemoryStore_QueryUnknownUserIsEmpty(t *testing.T) {
	req := require.New(t)
	s, err := NewMemoryStore(0)
	req.NoError(err)

	messages, err := s.QueryByUser(context.Background(), "nobody")
	req.NoError(err)
	req.Empty(messages)
}

func TestSnowflake_RejectsBadMachineID(t *testing.T) {
	req := require.New(t)

	_, err := newSnowflake(-1)
	req.Error(err)

	_, err = newSnowflake(maxMachineID + 1)
	req.Error(err)

	_, err = newSnowflake(maxMachineID)
	req.NoError(err)
}

func TestSnowflake_UniqueUnderContention(t *testing.T) {
	req := require.New(t)
	g, err := newSnowflake(1)
	req.NoError(err)

	seen := make(map[int64]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		id, err := g.next()
		req.NoError(err)
		_, dup := seen[id]
		req.False(dup, "duplicate id %d", id)
		seen[id] = struct{}{}
	}
}

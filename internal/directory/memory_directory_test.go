package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/supdesk/relay-service/internal/domain"
)

func TestMemoryDirectory_CreateAndGet(t *testing.T) {
	req := require.New(t)
	dir := NewMemoryDirectory()
	ctx := context.Background()

	user := &User{
		UserRecord:   domain.UserRecord{Username: "alice", Role: domain.RoleCustomer},
		PasswordHash: "hash",
	}
	req.NoError(dir.Create(ctx, user))
	req.NotEmpty(user.ID)

	got, err := dir.GetByUsername(ctx, "alice")
	req.NoError(err)
	req.Equal(user.ID, got.ID)
	req.Equal("hash", got.PasswordHash)

	// Returned record is a copy, not shared state.
	got.Username = "mutated"
	again, err := dir.GetByUsername(ctx, "alice")
	req.NoError(err)
	req.Equal("alice", again.Username)
}

func TestMemoryDirectory_DuplicateUsername(t *testing.T) {
	req := require.New(t)
	dir := NewMemoryDirectory()
	ctx := context.Background()

	req.NoError(dir.Create(ctx, &User{
		UserRecord: domain.UserRecord{Username: "alice", Role: domain.RoleCustomer},
	}))

	err := dir.Create(ctx, &User{
		UserRecord: domain.UserRecord{Username: "alice", Role: domain.RoleManager},
	})
	req.ErrorIs(err, ErrUsernameExists)
}

func TestMemoryDirectory_GetUnknown(t *testing.T) {
	req := require.New(t)
	dir := NewMemoryDirectory()

	_, err := dir.GetByUsername(context.Background(), "ghost")
	req.ErrorIs(err, ErrUserNotFound)
}

func TestMemoryDirectory_ListByRole(t *testing.T) {
	req := require.New(t)
	dir := NewMemoryDirectory()
	ctx := context.Background()

	for _, u := range []User{
		{UserRecord: domain.UserRecord{Username: "carol", Role: domain.RoleCustomer}},
		{UserRecord: domain.UserRecord{Username: "alice", Role: domain.RoleCustomer}},
		{UserRecord: domain.UserRecord{Username: "bob", Role: domain.RoleManager}},
	} {
		u := u
		req.NoError(dir.Create(ctx, &u))
	}

	customers, err := dir.ListByRole(ctx, domain.RoleCustomer)
	req.NoError(err)
	req.Len(customers, 2)
	req.Equal("alice", customers[0].Username)
	req.Equal("carol", customers[1].Username)
}

package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/supdesk/relay-service/internal/directory"
	"github.com/supdesk/relay-service/internal/domain"
	"github.com/supdesk/relay-service/pkg/jwt"
)

func newProvider(t *testing.T) (*DirectoryProvider, *directory.MemoryDirectory) {
	t.Helper()
	tokens, err := jwt.NewManager(time.Hour, "relay-test")
	require.NoError(t, err)

	dir := directory.NewMemoryDirectory()
	return NewDirectoryProvider(dir, tokens, "default"), dir
}

func TestAuthenticate_ProvisionsOnFirstLogin(t *testing.T) {
	req := require.New(t)
	p, dir := newProvider(t)

	result, err := p.Authenticate(context.Background(), "alice", "CUSTOMER")
	req.NoError(err)
	req.Equal("alice", result.Username)
	req.Equal(domain.RoleCustomer, result.Role)
	req.True(strings.HasPrefix(result.UserID, "customer-"))
	req.NotEmpty(result.Token)

	user, err := dir.GetByUsername(context.Background(), "alice")
	req.NoError(err)
	req.Equal(result.UserID, user.ID)
	req.NotEqual("default", user.PasswordHash)
}

func TestAuthenticate_RepeatLoginKeepsIdentity(t *testing.T) {
	req := require.New(t)
	p, _ := newProvider(t)

	first, err := p.Authenticate(context.Background(), "alice", "CUSTOMER")
	req.NoError(err)

	second, err := p.Authenticate(context.Background(), "alice", "CUSTOMER")
	req.NoError(err)
	req.Equal(first.UserID, second.UserID)
}

func TestAuthenticate_ManagersShareDeskIdentity(t *testing.T) {
	req := require.New(t)
	p, _ := newProvider(t)

	bob, err := p.Authenticate(context.Background(), "bob", "MANAGER")
	req.NoError(err)
	req.Equal(domain.SupportDeskID, bob.UserID)

	carol, err := p.Authenticate(context.Background(), "carol", "MANAGER")
	req.NoError(err)
	req.Equal(domain.SupportDeskID, carol.UserID)
	req.Equal("carol", carol.Username)
}

func TestAuthenticate_RejectsUnknownRole(t *testing.T) {
	req := require.New(t)
	p, _ := newProvider(t)

	_, err := p.Authenticate(context.Background(), "alice", "ADMIN")

	var authErr *domain.AuthError
	req.ErrorAs(err, &authErr)
}

func TestAuthenticate_RejectsRoleMismatch(t *testing.T) {
	req := require.New(t)
	p, _ := newProvider(t)

	_, err := p.Authenticate(context.Background(), "alice", "CUSTOMER")
	req.NoError(err)

	_, err = p.Authenticate(context.Background(), "alice", "MANAGER")

	var authErr *domain.AuthError
	req.ErrorAs(err, &authErr)
}

func TestAuthenticate_TokenCarriesClaims(t *testing.T) {
	req := require.New(t)
	tokens, err := jwt.NewManager(time.Hour, "relay-test")
	req.NoError(err)
	p := NewDirectoryProvider(directory.NewMemoryDirectory(), tokens, "default")

	result, err := p.Authenticate(context.Background(), "bob", "MANAGER")
	req.NoError(err)

	claims, err := tokens.ValidateToken(result.Token)
	req.NoError(err)
	req.Equal(domain.SupportDeskID, claims.UserID)
	req.Equal("bob", claims.Username)
	req.Equal("MANAGER", claims.Role)
}

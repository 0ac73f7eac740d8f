package auth

import (
	"context"

	"github.com/supdesk/relay-service/internal/domain"
)

// Result is a successful authentication: the identity the session runs
// under plus its session token.
type Result struct {
	Token    string
	UserID   string
	Username string
	Role     domain.Role
}

// Provider issues credentials and identity for a login. Failures are
// returned as *domain.AuthError.
type Provider interface {
	Authenticate(ctx context.Context, username, role string) (*Result, error)
}

package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/supdesk/relay-service/internal/directory"
	"github.com/supdesk/relay-service/internal/domain"
	"github.com/supdesk/relay-service/pkg/jwt"
	"github.com/supdesk/relay-service/pkg/log"
)

// DirectoryProvider authenticates against the user directory. Unknown
// usernames are provisioned on first login with the configured default
// credential, matching the desk's walk-up login flow.
type DirectoryProvider struct {
	dir        directory.UserDirectory
	tokens     *jwt.Manager
	credential string
}

func NewDirectoryProvider(dir directory.UserDirectory, tokens *jwt.Manager, credential string) *DirectoryProvider {
	return &DirectoryProvider{
		dir:        dir,
		tokens:     tokens,
		credential: credential,
	}
}

func (p *DirectoryProvider) Authenticate(ctx context.Context, username, roleStr string) (*Result, error) {
	role, err := domain.ParseRole(roleStr)
	if err != nil {
		return nil, &domain.AuthError{Reason: err.Error()}
	}

	user, err := p.dir.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, directory.ErrUserNotFound):
		user, err = p.provision(ctx, username, role)
		if err != nil {
			return nil, &domain.AuthError{Reason: "failed to provision user"}
		}
	case err != nil:
		log.Ctx(ctx).Error().Err(err).Str(log.FieldUsername, username).Msg("directory lookup failed")
		return nil, &domain.AuthError{Reason: "directory unavailable"}
	}

	if user.Role != role {
		return nil, &domain.AuthError{Reason: "role does not match registered user"}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(p.credential)); err != nil {
		return nil, &domain.AuthError{Reason: "invalid credentials"}
	}

	userID := p.sessionIdentity(user)

	token, err := p.tokens.GenerateToken(userID, user.Username, role.String())
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str(log.FieldUserID, userID).Msg("token generation failed")
		return nil, &domain.AuthError{Reason: "failed to issue token"}
	}

	return &Result{
		Token:    token,
		UserID:   userID,
		Username: user.Username,
		Role:     role,
	}, nil
}

// sessionIdentity maps a directory record onto the identity the session
// runs under. Managers all share the support-desk identity: the desk is a
// single routable recipient, and a second manager login supersedes the
// first.
func (p *DirectoryProvider) sessionIdentity(user *directory.User) string {
	switch user.Role {
	case domain.RoleManager:
		return domain.SupportDeskID
	default:
		return user.ID
	}
}

func (p *DirectoryProvider) provision(ctx context.Context, username string, role domain.Role) (*directory.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(p.credential), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &directory.User{
		UserRecord: domain.UserRecord{
			Username: username,
			Role:     role,
		},
		PasswordHash: string(hash),
	}
	if role == domain.RoleCustomer {
		user.ID = "customer-" + uuid.New().String()
	}

	if err := p.dir.Create(ctx, user); err != nil {
		// Concurrent first login for the same username: use the record
		// the other login created.
		if errors.Is(err, directory.ErrUsernameExists) {
			return p.dir.GetByUsername(ctx, username)
		}
		return nil, err
	}

	log.Ctx(ctx).Info().
		Str(log.FieldUserID, user.ID).
		Str(log.FieldUsername, username).
		Str(log.FieldRole, role.String()).
		Msg("provisioned user on first login")

	return user, nil
}

package directory

import (
	"context"
	"errors"

	"github.com/supdesk/relay-service/internal/domain"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrUsernameExists = errors.New("username already exists")
)

// User is a directory entry together with its stored credential hash.
type User struct {
	domain.UserRecord
	PasswordHash string
}

// UserDirectory owns user records.
type UserDirectory interface {
	// Create inserts a new user. A missing ID is assigned by the
	// directory.
	Create(ctx context.Context, user *User) error

	// GetByUsername returns the user with the given username, or
	// ErrUserNotFound.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// ListByRole returns every directory record with the given role.
	ListByRole(ctx context.Context, role domain.Role) ([]domain.UserRecord, error)
}

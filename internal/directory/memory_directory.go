package directory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/supdesk/relay-service/internal/domain"
)

// MemoryDirectory is the in-process UserDirectory used by the memory
// driver and by tests.
type MemoryDirectory struct {
	mu         sync.RWMutex
	byID       map[string]*User
	byUsername map[string]*User
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		byID:       make(map[string]*User),
		byUsername: make(map[string]*User),
	}
}

func (d *MemoryDirectory) Create(ctx context.Context, user *User) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.byUsername[user.Username]; exists {
		return ErrUsernameExists
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	cp := *user
	d.byID[cp.ID] = &cp
	d.byUsername[cp.Username] = &cp
	return nil
}

func (d *MemoryDirectory) GetByUsername(ctx context.Context, username string) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.byUsername[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (d *MemoryDirectory) ListByRole(ctx context.Context, role domain.Role) ([]domain.UserRecord, error) {
	d.mu.RLock()
	var records []domain.UserRecord
	for _, u := range d.byID {
		if u.Role == role {
			records = append(records, u.UserRecord)
		}
	}
	d.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		return records[i].Username < records[j].Username
	})
	return records, nil
}

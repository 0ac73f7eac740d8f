package directory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/supdesk/relay-service/internal/domain"
)

type userModel struct {
	ID           string `gorm:"primaryKey;size:64"`
	Username     string `gorm:"uniqueIndex;size:64;not null"`
	Role         string `gorm:"size:16;not null;index"`
	PasswordHash string `gorm:"size:128;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userModel) TableName() string {
	return "users"
}

func (m *userModel) toUser() *User {
	return &User{
		UserRecord: domain.UserRecord{
			ID:       m.ID,
			Username: m.Username,
			Role:     domain.Role(m.Role),
		},
		PasswordHash: m.PasswordHash,
	}
}

// GormDirectory implements UserDirectory on a relational database.
type GormDirectory struct {
	db *gorm.DB
}

func NewGormDirectory(db *gorm.DB) (*GormDirectory, error) {
	if err := db.AutoMigrate(&userModel{}); err != nil {
		return nil, err
	}
	return &GormDirectory{db: db}, nil
}

func (d *GormDirectory) Create(ctx context.Context, user *User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	model := &userModel{
		ID:           user.ID,
		Username:     user.Username,
		Role:         user.Role.String(),
		PasswordHash: user.PasswordHash,
	}

	if err := d.db.WithContext(ctx).Create(model).Error; err != nil {
		return d.handleError(err)
	}
	return nil
}

func (d *GormDirectory) GetByUsername(ctx context.Context, username string) (*User, error) {
	var model userModel
	result := d.db.WithContext(ctx).First(&model, "username = ?", username)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return model.toUser(), nil
}

func (d *GormDirectory) ListByRole(ctx context.Context, role domain.Role) ([]domain.UserRecord, error) {
	var models []userModel
	result := d.db.WithContext(ctx).
		Where("role = ?", role.String()).
		Order("username asc").
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	records := make([]domain.UserRecord, 0, len(models))
	for _, m := range models {
		records = append(records, m.toUser().UserRecord)
	}
	return records, nil
}

// handleError converts database-specific errors to directory errors.
func (d *GormDirectory) handleError(err error) error {
	errStr := err.Error()

	// PostgreSQL / SQLite / MySQL unique constraint violations
	if strings.Contains(errStr, "duplicate key") ||
		strings.Contains(errStr, "UNIQUE constraint") ||
		strings.Contains(errStr, "Duplicate entry") {
		return ErrUsernameExists
	}

	return err
}

package access

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/taskhub/chat-service/internal/domain"
)

// GormAdapter answers membership and user lookups from the shared database
// tables owned by the project and user services.
type GormAdapter struct {
	db *gorm.DB
}

func NewGormAdapter(db *gorm.DB) *GormAdapter {
	return &GormAdapter{db: db}
}

func (a *GormAdapter) IsMember(ctx context.Context, projectID, userID string) (bool, error) {
	var count int64
	err := a.db.WithContext(ctx).
		Model(&domain.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check project membership: %w", err)
	}
	return count > 0, nil
}

func (a *GormAdapter) FindUser(ctx context.Context, userID string) (*domain.User, error) {
	var user domain.User
	err := a.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return &user, nil
}

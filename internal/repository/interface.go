package repository

import (
	"context"
	"time"

	"github.com/taskhub/chat-service/internal/domain"
)

// MessageRepository is the persisted message log. Mutations are single-row;
// concurrent saves of the same row resolve last-write-wins at the store.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.ChatMessage) error
	FindByID(ctx context.Context, id string) (*domain.ChatMessage, error)
	Save(ctx context.Context, msg *domain.ChatMessage) error

	// ListByProject returns up to limit non-deleted messages for the project,
	// newest first. A non-nil before restricts to createdAt strictly before it.
	ListByProject(ctx context.Context, projectID string, limit int, before *time.Time) ([]domain.ChatMessage, error)
}

package access

import (
	"context"

	"github.com/taskhub/chat-service/internal/domain"
)

// Control is the chat core's view of the project/user services: a membership
// predicate and a user lookup. The chat service never mutates project or user
// state through it.
type Control interface {
	IsMember(ctx context.Context, projectID, userID string) (bool, error)
	FindUser(ctx context.Context, userID string) (*domain.User, error)
}

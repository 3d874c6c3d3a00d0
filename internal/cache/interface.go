package cache

import (
	"context"
	"errors"
	"time"

	"github.com/taskhub/chat-service/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// MessageCache stores resolved history pages keyed by their cursor bound.
// Only cursor-bounded pages are cached; the live tail of a room is always
// read from the store.
type MessageCache interface {
	Get(ctx context.Context, key string) ([]*domain.MessageResponse, error)
	Set(ctx context.Context, key string, page []*domain.MessageResponse, ttl time.Duration) error
	BuildKey(projectID string, before time.Time, limit int) string
	Close() error
}

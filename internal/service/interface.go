package service

import (
	"context"
	"time"

	"github.com/taskhub/chat-service/internal/domain"
	"github.com/taskhub/chat-service/internal/hub"
)

// ChatService is the single business-logic surface shared by the WebSocket
// and REST transports. Mutations broadcast to the project room from inside
// the service, so the two entry paths cannot diverge.
type ChatService interface {
	// Core operations, used by both transports.
	CreateMessage(ctx context.Context, projectID, authorID, content string) (*domain.MessageResponse, error)
	EditMessage(ctx context.Context, messageID, requesterID, content string) (*domain.MessageResponse, error)
	DeleteMessage(ctx context.Context, messageID, requesterID string) (*domain.MessageResponse, error)
	ListMessages(ctx context.Context, projectID, requesterID string, limit int, before *time.Time) ([]*domain.MessageResponse, error)

	// Socket event handlers. Each answers the initiating connection with an
	// ack or an error event; room-wide effects go through the broadcaster.
	HandleJoinProject(ctx context.Context, c *hub.Client, projectID string) error
	HandleLeaveProject(ctx context.Context, c *hub.Client, projectID string) error
	HandleSendMessage(ctx context.Context, c *hub.Client, projectID, content string) error
	HandleTyping(ctx context.Context, c *hub.Client, projectID string, isTyping bool) error
	HandleEditMessage(ctx context.Context, c *hub.Client, messageID, content string) error
	HandleDeleteMessage(ctx context.Context, c *hub.Client, messageID string) error
	HandleDisconnect(ctx context.Context, c *hub.Client) error
}

// Broadcaster is the service's view of the room broadcaster. *hub.Hub
// implements it.
type Broadcaster interface {
	Join(c *hub.Client, projectID string)
	Leave(c *hub.Client, projectID string)
	Broadcast(projectID string, payload interface{}, excludeClientID string) error
}

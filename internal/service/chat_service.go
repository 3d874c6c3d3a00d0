package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/taskhub/chat-service/internal/access"
	"github.com/taskhub/chat-service/internal/audit"
	"github.com/taskhub/chat-service/internal/cache"
	"github.com/taskhub/chat-service/internal/domain"
	"github.com/taskhub/chat-service/internal/hub"
	"github.com/taskhub/chat-service/internal/repository"
	"github.com/taskhub/chat-service/pkg/log"
)

const (
	defaultListLimit = 200
	maxListLimit     = 500

	unknownUserName = "Unknown User"
)

type chatService struct {
	repo     repository.MessageRepository
	access   access.Control
	hub      Broadcaster
	typing   *hub.TypingTracker
	cache    cache.MessageCache // nil when the page cache is disabled
	cacheTTL time.Duration
	sf       singleflight.Group
}

// NewChatService wires the chat operations. cache may be nil.
func NewChatService(
	repo repository.MessageRepository,
	accessCtl access.Control,
	broadcaster Broadcaster,
	typing *hub.TypingTracker,
	msgCache cache.MessageCache,
	cacheTTL time.Duration,
) ChatService {
	return &chatService{
		repo:     repo,
		access:   accessCtl,
		hub:      broadcaster,
		typing:   typing,
		cache:    msgCache,
		cacheTTL: cacheTTL,
	}
}

// --- Core operations -------------------------------------------------------

func (s *chatService) CreateMessage(ctx context.Context, projectID, authorID, content string) (*domain.MessageResponse, error) {
	if projectID == "" {
		return nil, &domain.ValidationError{Reason: "project id is required"}
	}
	if err := validateContent(content); err != nil {
		return nil, err
	}

	member, err := s.access.IsMember(ctx, projectID, authorID)
	if err != nil {
		return nil, fmt.Errorf("membership check failed: %w", err)
	}
	if !member {
		return nil, domain.ErrNotAMember
	}

	msg := &domain.ChatMessage{
		ID:        uuid.New().String(),
		Content:   sanitizeContent(content),
		UserID:    authorID,
		ProjectID: projectID,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, err
	}

	resp := msg.ToResponse(s.resolveUserName(ctx, authorID))
	audit.Log(ctx, audit.ActionSendMessage, authorID, "message created")

	// The broadcast carries the persisted row, so every client sees the
	// server-assigned id and timestamp.
	s.broadcastMessage(projectID, domain.EventNewMessage, resp)

	return resp, nil
}

func (s *chatService) EditMessage(ctx context.Context, messageID, requesterID, content string) (*domain.MessageResponse, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}

	msg, err := s.repo.FindByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.UserID != requesterID {
		return nil, domain.ErrNotAuthor
	}
	if msg.IsDeleted {
		return nil, domain.ErrAlreadyDeleted
	}

	// No-op edits succeed but leave the edit metadata untouched.
	if sanitized := sanitizeContent(content); sanitized != msg.Content {
		now := time.Now().UTC()
		msg.Content = sanitized
		msg.IsEdited = true
		msg.EditedAt = &now
	}

	if err := s.repo.Save(ctx, msg); err != nil {
		return nil, err
	}

	resp := msg.ToResponse(s.resolveUserName(ctx, msg.UserID))
	audit.Log(ctx, audit.ActionEditMessage, requesterID, "message edited")
	s.broadcastMessage(msg.ProjectID, domain.EventMessageEdited, resp)

	return resp, nil
}

func (s *chatService) DeleteMessage(ctx context.Context, messageID, requesterID string) (*domain.MessageResponse, error) {
	msg, err := s.repo.FindByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.UserID != requesterID {
		return nil, domain.ErrNotAuthor
	}

	// Idempotent: re-deleting re-applies the sentinel state.
	msg.IsDeleted = true
	msg.Content = domain.DeletedContent

	if err := s.repo.Save(ctx, msg); err != nil {
		return nil, err
	}

	resp := msg.ToResponse(s.resolveUserName(ctx, msg.UserID))
	audit.Log(ctx, audit.ActionDeleteMessage, requesterID, "message deleted")
	s.broadcastMessage(msg.ProjectID, domain.EventMessageDeleted, resp)

	return resp, nil
}

func (s *chatService) ListMessages(ctx context.Context, projectID, requesterID string, limit int, before *time.Time) ([]*domain.MessageResponse, error) {
	member, err := s.access.IsMember(ctx, projectID, requesterID)
	if err != nil {
		return nil, fmt.Errorf("membership check failed: %w", err)
	}
	if !member {
		return nil, domain.ErrNotAMember
	}

	limit = clampLimit(limit)

	// Only cursor-bounded pages are cached; the live tail is always fresh.
	if before != nil && s.cache != nil {
		return s.listCached(ctx, projectID, limit, before)
	}

	return s.listFromStore(ctx, projectID, limit, before)
}

func (s *chatService) listCached(ctx context.Context, projectID string, limit int, before *time.Time) ([]*domain.MessageResponse, error) {
	key := s.cache.BuildKey(projectID, *before, limit)

	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		page, err := s.cache.Get(ctx, key)
		if err == nil {
			return page, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Ctx(ctx).Warn().Err(err).Msg("cache get error")
		}

		page, err = s.listFromStore(ctx, projectID, limit, before)
		if err != nil {
			return nil, err
		}

		// Populate asynchronously so a slow cache never delays the response.
		go func() {
			setCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := s.cache.Set(setCtx, key, page, s.cacheTTL); err != nil {
				log.L().Warn().Err(err).Msg("cache set error")
			}
		}()

		return page, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]*domain.MessageResponse), nil
}

func (s *chatService) listFromStore(ctx context.Context, projectID string, limit int, before *time.Time) ([]*domain.MessageResponse, error) {
	messages, err := s.repo.ListByProject(ctx, projectID, limit, before)
	if err != nil {
		return nil, err
	}

	// The store returns newest-first; reverse to chronological order.
	names := make(map[string]string)
	page := make([]*domain.MessageResponse, len(messages))
	for i := range messages {
		msg := &messages[len(messages)-1-i]
		name, ok := names[msg.UserID]
		if !ok {
			name = s.resolveUserName(ctx, msg.UserID)
			names[msg.UserID] = name
		}
		page[i] = msg.ToResponse(name)
	}
	return page, nil
}

// --- Socket event handlers -------------------------------------------------

func (s *chatService) HandleJoinProject(ctx context.Context, c *hub.Client, projectID string) error {
	if !c.Session.IsAuthenticated() {
		return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeUnauthorized, "Not authenticated"))
	}
	if projectID == "" {
		return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "project_id is required"))
	}

	// Membership is not checked at join time; every message operation still
	// enforces it. See DESIGN.md before tightening this.
	s.hub.Join(c, projectID)
	c.Session.JoinRoom(projectID)
	audit.Log(ctx, audit.ActionJoinProject, c.Session.UserID(), "joined project room")

	return c.SendEvent(&domain.ProjectAck{Type: domain.EventJoinedProject, ProjectID: projectID})
}

func (s *chatService) HandleLeaveProject(ctx context.Context, c *hub.Client, projectID string) error {
	if !c.Session.IsAuthenticated() {
		return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeUnauthorized, "Not authenticated"))
	}
	if projectID == "" {
		return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "project_id is required"))
	}

	s.hub.Leave(c, projectID)
	c.Session.LeaveRoom(projectID)
	audit.Log(ctx, audit.ActionLeaveProject, c.Session.UserID(), "left project room")

	return c.SendEvent(&domain.ProjectAck{Type: domain.EventLeftProject, ProjectID: projectID})
}

func (s *chatService) HandleSendMessage(ctx context.Context, c *hub.Client, projectID, content string) error {
	if !c.Session.IsAuthenticated() {
		return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeUnauthorized, "Not authenticated"))
	}

	resp, err := s.CreateMessage(ctx, projectID, c.Session.UserID(), content)
	if err != nil {
		return s.sendErrorEvent(c, err)
	}

	return c.SendEvent(&domain.MessageEvent{Type: domain.EventMessageSent, Message: resp})
}

func (s *chatService) HandleTyping(ctx context.Context, c *hub.Client, projectID string, isTyping bool) error {
	if !c.Session.IsAuthenticated() {
		return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeUnauthorized, "Not authenticated"))
	}
	if projectID == "" {
		return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "project_id is required"))
	}

	if isTyping {
		s.typing.Set(c.ID, hub.TypingEntry{
			ProjectID: projectID,
			UserID:    c.Session.UserID(),
			UserName:  c.Session.UserName(),
		})
	} else {
		s.typing.Clear(c.ID)
	}

	return s.hub.Broadcast(projectID, &domain.UserTypingEvent{
		Type:     domain.EventUserTyping,
		UserID:   c.Session.UserID(),
		UserName: c.Session.UserName(),
		IsTyping: isTyping,
	}, c.ID)
}

func (s *chatService) HandleEditMessage(ctx context.Context, c *hub.Client, messageID, content string) error {
	if !c.Session.IsAuthenticated() {
		return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeUnauthorized, "Not authenticated"))
	}

	resp, err := s.EditMessage(ctx, messageID, c.Session.UserID(), content)
	if err != nil {
		return s.sendErrorEvent(c, err)
	}

	return c.SendEvent(&domain.MessageEvent{Type: domain.EventMessageEdited, Message: resp})
}

func (s *chatService) HandleDeleteMessage(ctx context.Context, c *hub.Client, messageID string) error {
	if !c.Session.IsAuthenticated() {
		return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeUnauthorized, "Not authenticated"))
	}

	resp, err := s.DeleteMessage(ctx, messageID, c.Session.UserID())
	if err != nil {
		return s.sendErrorEvent(c, err)
	}

	return c.SendEvent(&domain.MessageEvent{Type: domain.EventMessageDeleted, Message: resp})
}

// HandleDisconnect retracts a live typing indicator. The retraction goes to
// the room recorded at typing-start, not the connection's current
// memberships, which may already have changed.
func (s *chatService) HandleDisconnect(ctx context.Context, c *hub.Client) error {
	entry, ok := s.typing.Clear(c.ID)
	if !ok {
		return nil
	}

	return s.hub.Broadcast(entry.ProjectID, &domain.UserTypingEvent{
		Type:     domain.EventUserTyping,
		UserID:   entry.UserID,
		UserName: entry.UserName,
		IsTyping: false,
	}, c.ID)
}

// --- Helpers ---------------------------------------------------------------

func (s *chatService) broadcastMessage(projectID, eventType string, resp *domain.MessageResponse) {
	err := s.hub.Broadcast(projectID, &domain.MessageEvent{Type: eventType, Message: resp}, "")
	if err != nil {
		log.L().Warn().Err(err).
			Str(log.FieldProjectID, projectID).
			Str(log.FieldMessageID, resp.ID).
			Msg("room broadcast failed")
	}
}

func (s *chatService) sendErrorEvent(c *hub.Client, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotAMember), errors.Is(err, domain.ErrNotAuthor):
		return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeForbidden, err.Error()))
	case errors.Is(err, domain.ErrNotFound):
		return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeNotFound, "Message not found"))
	case errors.Is(err, domain.ErrAlreadyDeleted), domain.IsValidation(err):
		return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, err.Error()))
	case errors.Is(err, domain.ErrUnauthenticated):
		return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeUnauthorized, "Not authenticated"))
	default:
		log.L().Error().Err(err).Str(log.FieldClientID, c.ID).Msg("chat operation failed")
		return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeInternal, "Internal error"))
	}
}

func (s *chatService) resolveUserName(ctx context.Context, userID string) string {
	user, err := s.access.FindUser(ctx, userID)
	if err != nil || user == nil {
		return unknownUserName
	}
	return user.Name
}

func validateContent(content string) error {
	if len(content) == 0 {
		return &domain.ValidationError{Reason: "content must not be empty"}
	}
	// The bound is characters, not bytes.
	if utf8.RuneCountInString(content) > domain.MaxContentLength {
		return &domain.ValidationError{Reason: "content exceeds maximum length"}
	}
	return nil
}

func clampLimit(limit int) int {
	if limit == 0 {
		return defaultListLimit
	}
	if limit < 1 {
		return 1
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

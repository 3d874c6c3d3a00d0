package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskhub/chat-service/internal/domain"
	"github.com/taskhub/chat-service/internal/service"
	"github.com/taskhub/chat-service/pkg/response"
)

// HTTPHandler is the REST facade over the shared chat service. Mutations
// broadcast to connected socket clients through the same path the socket
// handlers use.
type HTTPHandler struct {
	service service.ChatService
}

func NewHTTPHandler(svc service.ChatService) *HTTPHandler {
	return &HTTPHandler{service: svc}
}

func (h *HTTPHandler) RegisterRoutes(r *gin.Engine, requireAuth gin.HandlerFunc) {
	chat := r.Group("/chat", requireAuth)
	{
		chat.GET("/projects/:projectId/messages", h.GetProjectMessages)
		chat.PATCH("/messages/:messageId", h.EditMessage)
		chat.DELETE("/messages/:messageId", h.DeleteMessage)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}

func (h *HTTPHandler) GetProjectMessages(c *gin.Context) {
	projectID := c.Param("projectId")

	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			response.BadRequest(c, "limit must be an integer")
			return
		}
		limit = parsed
	}

	var before *time.Time
	if beforeStr := c.Query("before"); beforeStr != "" {
		parsed, err := time.Parse(time.RFC3339, beforeStr)
		if err != nil {
			response.BadRequest(c, "before must be an RFC 3339 timestamp")
			return
		}
		before = &parsed
	}

	messages, err := h.service.ListMessages(c.Request.Context(), projectID, CurrentUserID(c), limit, before)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, messages)
}

type editMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *HTTPHandler) EditMessage(c *gin.Context) {
	var req editMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "content is required")
		return
	}

	msg, err := h.service.EditMessage(c.Request.Context(), c.Param("messageId"), CurrentUserID(c), req.Content)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, msg)
}

func (h *HTTPHandler) DeleteMessage(c *gin.Context) {
	msg, err := h.service.DeleteMessage(c.Request.Context(), c.Param("messageId"), CurrentUserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, msg)
}

func (h *HTTPHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotAMember):
		// Folded into not-found so project existence is not revealed to
		// non-members.
		response.NotFound(c, "Project not found or access denied")
	case errors.Is(err, domain.ErrNotFound):
		response.NotFound(c, "Message not found")
	case errors.Is(err, domain.ErrNotAuthor):
		response.Forbidden(c, "Not authorized to modify this message")
	case errors.Is(err, domain.ErrAlreadyDeleted), domain.IsValidation(err):
		response.BadRequest(c, err.Error())
	default:
		response.InternalError(c, "Internal error")
	}
}

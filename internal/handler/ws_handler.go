package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/taskhub/chat-service/internal/access"
	"github.com/taskhub/chat-service/internal/audit"
	"github.com/taskhub/chat-service/internal/auth"
	"github.com/taskhub/chat-service/internal/config"
	"github.com/taskhub/chat-service/internal/domain"
	"github.com/taskhub/chat-service/internal/hub"
	"github.com/taskhub/chat-service/internal/service"
	"github.com/taskhub/chat-service/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type eventHandler func(ctx context.Context, c *hub.Client, payload []byte) error

// WSHandler upgrades connections, authenticates them once at handshake time,
// and dispatches events through an explicit event table.
type WSHandler struct {
	hub      *hub.Hub
	service  service.ChatService
	verifier *auth.Verifier
	access   access.Control
	wsCfg    config.WebSocketConfig
	handlers map[string]eventHandler
}

func NewWSHandler(
	h *hub.Hub,
	svc service.ChatService,
	verifier *auth.Verifier,
	accessCtl access.Control,
	wsCfg config.WebSocketConfig,
) *WSHandler {
	ws := &WSHandler{
		hub:      h,
		service:  svc,
		verifier: verifier,
		access:   accessCtl,
		wsCfg:    wsCfg,
	}

	ws.handlers = map[string]eventHandler{
		domain.EventJoinProject:   ws.onJoinProject,
		domain.EventLeaveProject:  ws.onLeaveProject,
		domain.EventSendMessage:   ws.onSendMessage,
		domain.EventTyping:        ws.onTyping,
		domain.EventEditMessage:   ws.onEditMessage,
		domain.EventDeleteMessage: ws.onDeleteMessage,
	}

	return ws
}

func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/chat/ws", h.HandleWebSocket)
}

func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.L().Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), h.hub, conn, h.wsCfg)
	h.hub.Register(client)

	// Authentication happens exactly once, from the handshake request. A
	// failure leaves the session unauthenticated; every subsequent event is
	// then answered with a generic authorization error.
	h.authenticate(c.Request, client)

	go client.WritePump()
	go client.ReadPump(h.dispatch, h.onDisconnect)
}

func (h *WSHandler) authenticate(r *http.Request, client *hub.Client) {
	token := auth.TokenFromRequest(r)
	if token == "" {
		return
	}

	claims, err := h.verifier.Verify(token)
	if err != nil {
		audit.Log(r.Context(), audit.ActionAuthFailed, "", "websocket token rejected")
		return
	}

	user, err := h.access.FindUser(r.Context(), claims.Subject)
	if err != nil {
		audit.Log(r.Context(), audit.ActionAuthFailed, claims.Subject, "websocket token subject unknown")
		return
	}

	client.Session.Authenticate(user.ID, user.Name)
	log.L().Debug().
		Str(log.FieldClientID, client.ID).
		Str(log.FieldUserID, user.ID).
		Msg("websocket session authenticated")
}

func (h *WSHandler) dispatch(client *hub.Client, message []byte) {
	var base domain.Envelope
	if err := json.Unmarshal(message, &base); err != nil {
		client.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "Invalid event format"))
		return
	}

	handle, ok := h.handlers[base.Type]
	if !ok {
		client.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "Unknown event type"))
		return
	}

	if err := handle(context.Background(), client, message); err != nil {
		log.L().Warn().Err(err).
			Str(log.FieldClientID, client.ID).
			Str("event", base.Type).
			Msg("event handling failed")
	}
}

func (h *WSHandler) onDisconnect(client *hub.Client) {
	if err := h.service.HandleDisconnect(context.Background(), client); err != nil {
		log.L().Warn().Err(err).Str(log.FieldClientID, client.ID).Msg("disconnect cleanup failed")
	}
}

func (h *WSHandler) onJoinProject(ctx context.Context, c *hub.Client, payload []byte) error {
	var ev domain.JoinProjectEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "Invalid join-project event"))
	}
	return h.service.HandleJoinProject(ctx, c, ev.ProjectID)
}

func (h *WSHandler) onLeaveProject(ctx context.Context, c *hub.Client, payload []byte) error {
	var ev domain.JoinProjectEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "Invalid leave-project event"))
	}
	return h.service.HandleLeaveProject(ctx, c, ev.ProjectID)
}

func (h *WSHandler) onSendMessage(ctx context.Context, c *hub.Client, payload []byte) error {
	var ev domain.SendMessageEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "Invalid send-message event"))
	}
	return h.service.HandleSendMessage(ctx, c, ev.ProjectID, ev.Content)
}

func (h *WSHandler) onTyping(ctx context.Context, c *hub.Client, payload []byte) error {
	var ev domain.TypingEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "Invalid typing event"))
	}
	return h.service.HandleTyping(ctx, c, ev.ProjectID, ev.IsTyping)
}

func (h *WSHandler) onEditMessage(ctx context.Context, c *hub.Client, payload []byte) error {
	var ev domain.EditMessageEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "Invalid edit-message event"))
	}
	return h.service.HandleEditMessage(ctx, c, ev.MessageID, ev.Content)
}

func (h *WSHandler) onDeleteMessage(ctx context.Context, c *hub.Client, payload []byte) error {
	var ev domain.DeleteMessageEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "Invalid delete-message event"))
	}
	return h.service.HandleDeleteMessage(ctx, c, ev.MessageID)
}

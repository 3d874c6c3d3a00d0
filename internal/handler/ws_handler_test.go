package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/chat-service/internal/auth"
	"github.com/taskhub/chat-service/internal/config"
	"github.com/taskhub/chat-service/internal/domain"
	"github.com/taskhub/chat-service/internal/hub"
)

// recordingService captures which socket handlers ran and with what session
// state, signalling each call on a channel so tests can wait for the read
// pump.
type recordingService struct {
	stubChatService
	calls chan recordedCall
}

type recordedCall struct {
	method        string
	projectID     string
	messageID     string
	content       string
	isTyping      bool
	authenticated bool
}

func newRecordingService() *recordingService {
	return &recordingService{calls: make(chan recordedCall, 16)}
}

func (s *recordingService) record(c *hub.Client, call recordedCall) error {
	call.authenticated = c.Session.IsAuthenticated()
	s.calls <- call
	return nil
}

func (s *recordingService) HandleJoinProject(_ context.Context, c *hub.Client, projectID string) error {
	return s.record(c, recordedCall{method: "join", projectID: projectID})
}

func (s *recordingService) HandleLeaveProject(_ context.Context, c *hub.Client, projectID string) error {
	return s.record(c, recordedCall{method: "leave", projectID: projectID})
}

func (s *recordingService) HandleSendMessage(_ context.Context, c *hub.Client, projectID, content string) error {
	return s.record(c, recordedCall{method: "send", projectID: projectID, content: content})
}

func (s *recordingService) HandleTyping(_ context.Context, c *hub.Client, projectID string, isTyping bool) error {
	return s.record(c, recordedCall{method: "typing", projectID: projectID, isTyping: isTyping})
}

func (s *recordingService) HandleEditMessage(_ context.Context, c *hub.Client, messageID, content string) error {
	return s.record(c, recordedCall{method: "edit", messageID: messageID, content: content})
}

func (s *recordingService) HandleDeleteMessage(_ context.Context, c *hub.Client, messageID string) error {
	return s.record(c, recordedCall{method: "delete", messageID: messageID})
}

func (s *recordingService) HandleDisconnect(_ context.Context, c *hub.Client) error {
	return s.record(c, recordedCall{method: "disconnect"})
}

func (s *recordingService) waitForCall(t *testing.T) recordedCall {
	t.Helper()
	select {
	case call := <-s.calls:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("no handler call recorded")
		return recordedCall{}
	}
}

type wsFixture struct {
	server   *httptest.Server
	service  *recordingService
	verifier *auth.Verifier
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	wsCfg := config.WebSocketConfig{
		PingInterval:   30 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
		MaxMessageSize: 8192,
		SendBuffer:     16,
	}

	wsHub := hub.NewHub(wsCfg)
	go wsHub.Run()

	svc := newRecordingService()
	verifier := auth.NewVerifier("test-secret", "taskhub")
	accessCtl := &stubAccess{users: map[string]*domain.User{
		"u1": {ID: "u1", Name: "Alice"},
	}}

	router := gin.New()
	NewWSHandler(wsHub, svc, verifier, accessCtl, wsCfg).RegisterRoutes(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &wsFixture{server: server, service: svc, verifier: verifier}
}

func (f *wsFixture) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/chat/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func (f *wsFixture) dialAuthenticated(t *testing.T, userID string) *websocket.Conn {
	t.Helper()
	token, err := f.verifier.Sign(userID, "", time.Hour)
	require.NoError(t, err)
	return f.dial(t, "?token="+token)
}

func readEvent(t *testing.T, conn *websocket.Conn, out interface{}) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

func TestHandshakeTokenAuthenticatesSession(t *testing.T) {
	f := newWSFixture(t)
	conn := f.dialAuthenticated(t, "u1")

	require.NoError(t, conn.WriteJSON(domain.JoinProjectEvent{Type: domain.EventJoinProject, ProjectID: "p1"}))

	call := f.service.waitForCall(t)
	require.Equal(t, "join", call.method)
	require.Equal(t, "p1", call.projectID)
	require.True(t, call.authenticated)
}

func TestHandshakeWithoutTokenLeavesSessionUnauthenticated(t *testing.T) {
	f := newWSFixture(t)
	conn := f.dial(t, "")

	require.NoError(t, conn.WriteJSON(domain.JoinProjectEvent{Type: domain.EventJoinProject, ProjectID: "p1"}))

	call := f.service.waitForCall(t)
	require.False(t, call.authenticated)
}

func TestHandshakeWithBadTokenLeavesSessionUnauthenticated(t *testing.T) {
	f := newWSFixture(t)
	conn := f.dial(t, "?token=garbage")

	require.NoError(t, conn.WriteJSON(domain.JoinProjectEvent{Type: domain.EventJoinProject, ProjectID: "p1"}))

	call := f.service.waitForCall(t)
	require.False(t, call.authenticated)
}

func TestEventsRouteToTheirHandlers(t *testing.T) {
	f := newWSFixture(t)
	conn := f.dialAuthenticated(t, "u1")

	require.NoError(t, conn.WriteJSON(domain.SendMessageEvent{Type: domain.EventSendMessage, ProjectID: "p1", Content: "hi"}))
	call := f.service.waitForCall(t)
	require.Equal(t, "send", call.method)
	require.Equal(t, "hi", call.content)

	require.NoError(t, conn.WriteJSON(domain.TypingEvent{Type: domain.EventTyping, ProjectID: "p1", IsTyping: true}))
	call = f.service.waitForCall(t)
	require.Equal(t, "typing", call.method)
	require.True(t, call.isTyping)

	require.NoError(t, conn.WriteJSON(domain.EditMessageEvent{Type: domain.EventEditMessage, MessageID: "m1", Content: "new"}))
	call = f.service.waitForCall(t)
	require.Equal(t, "edit", call.method)
	require.Equal(t, "m1", call.messageID)

	require.NoError(t, conn.WriteJSON(domain.DeleteMessageEvent{Type: domain.EventDeleteMessage, MessageID: "m1"}))
	call = f.service.waitForCall(t)
	require.Equal(t, "delete", call.method)
}

func TestUnknownEventTypeGetsBadRequestEvent(t *testing.T) {
	f := newWSFixture(t)
	conn := f.dialAuthenticated(t, "u1")

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "bogus"}))

	var ev domain.ErrorEvent
	readEvent(t, conn, &ev)
	require.Equal(t, domain.EventError, ev.Type)
	require.Equal(t, domain.ErrCodeBadRequest, ev.Code)
}

func TestMalformedPayloadGetsBadRequestEvent(t *testing.T) {
	f := newWSFixture(t)
	conn := f.dialAuthenticated(t, "u1")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))

	var ev domain.ErrorEvent
	readEvent(t, conn, &ev)
	require.Equal(t, domain.ErrCodeBadRequest, ev.Code)
}

func TestCloseTriggersDisconnectCleanup(t *testing.T) {
	f := newWSFixture(t)
	conn := f.dialAuthenticated(t, "u1")

	require.NoError(t, conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	))
	conn.Close()

	call := f.service.waitForCall(t)
	require.Equal(t, "disconnect", call.method)
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/chat-service/internal/auth"
	"github.com/taskhub/chat-service/internal/domain"
	"github.com/taskhub/chat-service/internal/hub"
	"github.com/taskhub/chat-service/pkg/response"
)

// stubChatService lets each test script the outcome of a single operation.
type stubChatService struct {
	listResult []*domain.MessageResponse
	listErr    error
	listLimit  int
	listBefore *time.Time

	editResult *domain.MessageResponse
	editErr    error

	deleteResult *domain.MessageResponse
	deleteErr    error
}

func (s *stubChatService) CreateMessage(context.Context, string, string, string) (*domain.MessageResponse, error) {
	return nil, nil
}

func (s *stubChatService) EditMessage(_ context.Context, _, _, _ string) (*domain.MessageResponse, error) {
	return s.editResult, s.editErr
}

func (s *stubChatService) DeleteMessage(_ context.Context, _, _ string) (*domain.MessageResponse, error) {
	return s.deleteResult, s.deleteErr
}

func (s *stubChatService) ListMessages(_ context.Context, _, _ string, limit int, before *time.Time) ([]*domain.MessageResponse, error) {
	s.listLimit = limit
	s.listBefore = before
	return s.listResult, s.listErr
}

func (s *stubChatService) HandleJoinProject(context.Context, *hub.Client, string) error  { return nil }
func (s *stubChatService) HandleLeaveProject(context.Context, *hub.Client, string) error { return nil }
func (s *stubChatService) HandleSendMessage(context.Context, *hub.Client, string, string) error {
	return nil
}
func (s *stubChatService) HandleTyping(context.Context, *hub.Client, string, bool) error { return nil }
func (s *stubChatService) HandleEditMessage(context.Context, *hub.Client, string, string) error {
	return nil
}
func (s *stubChatService) HandleDeleteMessage(context.Context, *hub.Client, string) error {
	return nil
}
func (s *stubChatService) HandleDisconnect(context.Context, *hub.Client) error { return nil }

type stubAccess struct {
	users map[string]*domain.User
}

func (a *stubAccess) IsMember(context.Context, string, string) (bool, error) { return true, nil }

func (a *stubAccess) FindUser(_ context.Context, userID string) (*domain.User, error) {
	user, ok := a.users[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

type httpFixture struct {
	router   *gin.Engine
	service  *stubChatService
	verifier *auth.Verifier
}

func newHTTPFixture(t *testing.T) *httpFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := &stubChatService{}
	verifier := auth.NewVerifier("test-secret", "taskhub")
	accessCtl := &stubAccess{users: map[string]*domain.User{
		"u1": {ID: "u1", Name: "Alice"},
	}}

	router := gin.New()
	NewHTTPHandler(svc).RegisterRoutes(router, RequireAuth(verifier, accessCtl))

	return &httpFixture{router: router, service: svc, verifier: verifier}
}

func (f *httpFixture) do(t *testing.T, method, path, body, userID string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		token, err := f.verifier.Sign(userID, "", time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGetMessagesRequiresAuth(t *testing.T) {
	f := newHTTPFixture(t)

	w := f.do(t, http.MethodGet, "/chat/projects/p1/messages", "", "")

	require.Equal(t, http.StatusUnauthorized, w.Code)
	resp := decodeResponse(t, w)
	require.False(t, resp.Success)
	require.Equal(t, "UNAUTHORIZED", resp.Error.Code)
}

func TestGetMessagesRejectsUnknownSubject(t *testing.T) {
	f := newHTTPFixture(t)

	w := f.do(t, http.MethodGet, "/chat/projects/p1/messages", "", "ghost")

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetMessagesReturnsPage(t *testing.T) {
	f := newHTTPFixture(t)
	f.service.listResult = []*domain.MessageResponse{
		{ID: "m1", Content: "hello", UserID: "u1", UserName: "Alice", ProjectID: "p1"},
	}

	w := f.do(t, http.MethodGet, "/chat/projects/p1/messages?limit=50", "", "u1")

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.True(t, resp.Success)
	require.Equal(t, 50, f.service.listLimit)

	page, ok := resp.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, page, 1)
}

func TestGetMessagesParsesBeforeCursor(t *testing.T) {
	f := newHTTPFixture(t)

	w := f.do(t, http.MethodGet, "/chat/projects/p1/messages?before=2026-08-01T12:00:00Z", "", "u1")

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, f.service.listBefore)
	require.Equal(t, time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC), f.service.listBefore.UTC())
}

func TestGetMessagesRejectsMalformedQuery(t *testing.T) {
	f := newHTTPFixture(t)

	w := f.do(t, http.MethodGet, "/chat/projects/p1/messages?limit=abc", "", "u1")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/chat/projects/p1/messages?before=yesterday", "", "u1")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetMessagesHidesProjectFromNonMembers(t *testing.T) {
	f := newHTTPFixture(t)
	f.service.listErr = domain.ErrNotAMember

	w := f.do(t, http.MethodGet, "/chat/projects/p1/messages", "", "u1")

	// Membership denial is indistinguishable from a missing project.
	require.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeResponse(t, w)
	require.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestEditMessageReturnsUpdatedMessage(t *testing.T) {
	f := newHTTPFixture(t)
	f.service.editResult = &domain.MessageResponse{ID: "m1", Content: "updated", IsEdited: true}

	w := f.do(t, http.MethodPatch, "/chat/messages/m1", `{"content":"updated"}`, "u1")

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.True(t, resp.Success)
}

func TestEditMessageRequiresContent(t *testing.T) {
	f := newHTTPFixture(t)

	w := f.do(t, http.MethodPatch, "/chat/messages/m1", `{}`, "u1")

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEditMessageErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{name: "not found", err: domain.ErrNotFound, code: http.StatusNotFound},
		{name: "not author", err: domain.ErrNotAuthor, code: http.StatusForbidden},
		{name: "already deleted", err: domain.ErrAlreadyDeleted, code: http.StatusBadRequest},
		{name: "validation", err: &domain.ValidationError{Reason: "too long"}, code: http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newHTTPFixture(t)
			f.service.editErr = tc.err

			w := f.do(t, http.MethodPatch, "/chat/messages/m1", `{"content":"x"}`, "u1")
			require.Equal(t, tc.code, w.Code)
		})
	}
}

func TestDeleteMessageReturnsTombstone(t *testing.T) {
	f := newHTTPFixture(t)
	f.service.deleteResult = &domain.MessageResponse{ID: "m1", Content: domain.DeletedContent, IsDeleted: true}

	w := f.do(t, http.MethodDelete, "/chat/messages/m1", "", "u1")

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.True(t, resp.Success)
}

func TestDeleteMessageByNonAuthorIsForbidden(t *testing.T) {
	f := newHTTPFixture(t)
	f.service.deleteErr = domain.ErrNotAuthor

	w := f.do(t, http.MethodDelete, "/chat/messages/m1", "", "u1")

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestHealthEndpointIsUnauthenticated(t *testing.T) {
	f := newHTTPFixture(t)

	w := f.do(t, http.MethodGet, "/health", "", "")

	require.Equal(t, http.StatusOK, w.Code)
}

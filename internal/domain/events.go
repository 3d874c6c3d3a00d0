package domain

// WebSocket event types from client.
const (
	EventJoinProject   = "join-project"
	EventLeaveProject  = "leave-project"
	EventSendMessage   = "send-message"
	EventTyping        = "typing"
	EventEditMessage   = "edit-message"
	EventDeleteMessage = "delete-message"
)

// WebSocket event types to client.
const (
	EventNewMessage     = "new-message"
	EventMessageEdited  = "message-edited"
	EventMessageDeleted = "message-deleted"
	EventUserTyping     = "user-typing"
	EventJoinedProject  = "joined-project"
	EventLeftProject    = "left-project"
	EventMessageSent    = "message-sent"
	EventError          = "error"
)

// Error codes carried by error events. The socket path deliberately keeps
// these coarse so failures do not leak membership details.
const (
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// Envelope is the base structure of every WebSocket event.
type Envelope struct {
	Type string `json:"type"`
}

// Client -> Server events

type JoinProjectEvent struct {
	Type      string `json:"type"`
	ProjectID string `json:"project_id"`
}

type SendMessageEvent struct {
	Type      string `json:"type"`
	ProjectID string `json:"project_id"`
	Content   string `json:"content"`
}

type TypingEvent struct {
	Type      string `json:"type"`
	ProjectID string `json:"project_id"`
	IsTyping  bool   `json:"is_typing"`
}

type EditMessageEvent struct {
	Type      string `json:"type"`
	MessageID string `json:"message_id"`
	Content   string `json:"content"`
}

type DeleteMessageEvent struct {
	Type      string `json:"type"`
	MessageID string `json:"message_id"`
}

// Server -> Client events

// MessageEvent carries a full message representation. Used for room-wide
// new-message/message-edited/message-deleted broadcasts and for the
// message-sent ack to the initiating connection.
type MessageEvent struct {
	Type    string           `json:"type"`
	Message *MessageResponse `json:"message"`
}

// ProjectAck acknowledges a join/leave to the initiating connection.
type ProjectAck struct {
	Type      string `json:"type"`
	ProjectID string `json:"project_id"`
}

// UserTypingEvent is broadcast room-wide, excluding the sender.
type UserTypingEvent struct {
	Type     string `json:"type"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	IsTyping bool   `json:"is_typing"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewErrorEvent(code, message string) *ErrorEvent {
	return &ErrorEvent{
		Type:    EventError,
		Code:    code,
		Message: message,
	}
}

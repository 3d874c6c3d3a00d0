package audit

import (
	"context"

	"github.com/taskhub/chat-service/pkg/log"
)

// Audit actions for the chat service.
const (
	ActionAuthFailed    = "chat.auth_failed"
	ActionJoinProject   = "chat.join_project"
	ActionLeaveProject  = "chat.leave_project"
	ActionSendMessage   = "chat.send_message"
	ActionEditMessage   = "chat.edit_message"
	ActionDeleteMessage = "chat.delete_message"
)

const fieldAction = "action"

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action, userID, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(fieldAction, action).
		Str(log.FieldUserID, userID).
		Msg(msg)
}

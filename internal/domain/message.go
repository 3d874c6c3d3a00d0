package domain

import "time"

// DeletedContent replaces the content of a soft-deleted message.
const DeletedContent = "[Message deleted]"

// MaxContentLength is the maximum accepted message length in characters.
const MaxContentLength = 5000

// ChatMessage is the persisted chat message row. ProjectID and UserID are
// immutable after creation; IsDeleted only ever flips false -> true.
type ChatMessage struct {
	ID        string     `gorm:"primaryKey;size:36"`
	Content   string     `gorm:"type:text"`
	UserID    string     `gorm:"size:36;index"`
	ProjectID string     `gorm:"size:36;index:idx_chat_messages_project_created,priority:1"`
	IsEdited  bool       `gorm:"default:false"`
	IsDeleted bool       `gorm:"default:false"`
	CreatedAt time.Time  `gorm:"index:idx_chat_messages_project_created,priority:2"`
	EditedAt  *time.Time
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

// MessageResponse is the wire shape shared by the REST facade and the
// WebSocket event stream.
type MessageResponse struct {
	ID        string     `json:"id"`
	Content   string     `json:"content"`
	UserID    string     `json:"user_id"`
	UserName  string     `json:"user_name"`
	ProjectID string     `json:"project_id"`
	IsEdited  bool       `json:"is_edited"`
	IsDeleted bool       `json:"is_deleted"`
	CreatedAt time.Time  `json:"created_at"`
	EditedAt  *time.Time `json:"edited_at"`
}

// ToResponse maps a persisted row to its wire shape.
func (m *ChatMessage) ToResponse(userName string) *MessageResponse {
	return &MessageResponse{
		ID:        m.ID,
		Content:   m.Content,
		UserID:    m.UserID,
		UserName:  userName,
		ProjectID: m.ProjectID,
		IsEdited:  m.IsEdited,
		IsDeleted: m.IsDeleted,
		CreatedAt: m.CreatedAt,
		EditedAt:  m.EditedAt,
	}
}

// User is the slice of the users table the chat service reads. The table is
// owned by the user service; the chat service never writes it.
type User struct {
	ID    string `gorm:"primaryKey;size:36"`
	Name  string `gorm:"size:255"`
	Email string `gorm:"size:255"`
}

func (User) TableName() string {
	return "users"
}

// ProjectMember is the membership row the access-control adapter reads.
// Owned by the project service.
type ProjectMember struct {
	ProjectID string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"primaryKey;size:36"`
	Role      string `gorm:"size:32"`
}

func (ProjectMember) TableName() string {
	return "project_members"
}

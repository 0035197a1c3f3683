package models

import "time"

// Conversation represents a direct or group conversation.
// Поля LastMessage, UnreadCount, Members и LastReadAt вычисляются при сборке
// списка бесед и не хранятся в таблице conversations.
// LastMessage, UnreadCount, Members and LastReadAt are derived at assembly
// time and are not stored in the conversations table.
type Conversation struct {
	ID        string     `json:"id"`
	Name      NullString `json:"name"`
	IsGroup   bool       `json:"is_group"`
	CreatedBy string     `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	LastMessage *Message `json:"last_message,omitempty"`
	UnreadCount int      `json:"unread_count"`
	Members     []User   `json:"members,omitempty"`
	LastReadAt  NullTime `json:"last_read_at"`
}

// ConversationMember пара "пользователь - беседа" с отметкой последнего прочтения.
// Используется и для контроля доступа, и для подсчета непрочитанных.
type ConversationMember struct {
	ConversationID string   `json:"conversation_id"`
	UserID         string   `json:"user_id"`
	LastReadAt     NullTime `json:"last_read_at"`

	// Conversation присоединяется при выборке членств текущего пользователя.
	Conversation *Conversation `json:"conversation,omitempty"`
}

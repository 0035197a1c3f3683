package models

import (
	"strings"
	"time"

	"lumenr/internal/constants"
)

// Message represents a message in a conversation.
// Сообщение неизменяемо после создания, кроме единственного перехода
// read_at из NULL в фиксированный момент времени.
// A message is immutable once created except for the single read_at
// transition from NULL to a fixed instant.
type Message struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id"`
	SenderID       string     `json:"sender_id"`
	Message        string     `json:"message"`
	CreatedAt      time.Time  `json:"created_at"`
	ReadAt         NullTime   `json:"read_at"`
	FileName       NullString `json:"file_name,omitempty"`
	FileURL        NullString `json:"file_url,omitempty"`
	FileSize       NullInt64  `json:"file_size,omitempty"`

	// Sender подставляется при загрузке истории (включая роль).
	Sender *User `json:"sender,omitempty"`
}

// IsPending сообщает, является ли запись оптимистичной (еще не подтвержденной сервером).
func (m Message) IsPending() bool {
	return strings.HasPrefix(m.ID, constants.TEMP_MESSAGE_PREFIX)
}

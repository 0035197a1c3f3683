package models

import "time"

// Note represents a personal note.
type Note struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Title     string     `json:"title"`
	Content   NullString `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NoteNotification - уведомление получателю о заметке, отправленной коллегой.
// Дублируется личным сообщением в беседе (см. обработчик заметок).
// A note shared with a colleague; duplicated as a direct message.
type NoteNotification struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipient_id"`
	SenderID    string    `json:"sender_id"`
	NoteTitle   string    `json:"note_title"`
	NoteContent NullString `json:"note_content"`
	SenderName  string    `json:"sender_name"`
	CreatedAt   time.Time `json:"created_at"`
}

package models

import "time"

// User represents a user in the workspace.
// Роль хранится отдельно в user_roles; сюда подставляется при сборке ответов.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Department   NullString `json:"department"`
	Status       string     `json:"status"`
	Role         string     `json:"role,omitempty"`
	TelegramChat NullInt64  `json:"telegram_chat_id,omitempty"` // Привязанный Telegram-чат для уведомлений / Linked Telegram chat for notifications
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// FullName возвращает отображаемое имя пользователя.
func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// UserRole represents a role assignment row.
type UserRole struct {
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

package models

import "time"

// HistoryLog - запись журнала действий пользователя.
type HistoryLog struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

package models

import "time"

// AssistantMessage - одна реплика в истории чата с ассистентом Lumen.
// Images и Files хранятся как JSONB-массивы.
type AssistantMessage struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Role      string          `json:"role"` // "user" или "assistant"
	Content   string          `json:"content"`
	Images    []string        `json:"images,omitempty"`
	Files     []AssistantFile `json:"files,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// AssistantFile - файл, приложенный к реплике (содержимое в base64 data URL).
type AssistantFile struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Data string `json:"data"`
}

package db

import (
	"database/sql"
	"encoding/json"
	"log"

	"lumenr/internal/models"
)

// GetAssistantHistory возвращает историю чата пользователя с ассистентом
// по возрастанию времени создания.
func GetAssistantHistory(userID string) ([]models.AssistantMessage, error) {
	rows, err := DB.Query(`
        SELECT id, user_id, role, content, images, files, created_at
        FROM assistant_chats
        WHERE user_id = $1
        ORDER BY created_at ASC`, userID)
	if err != nil {
		log.Printf("GetAssistantHistory: ошибка получения истории ассистента для %s: %v", userID, err)
		return nil, err
	}
	defer rows.Close()

	var history []models.AssistantMessage
	for rows.Next() {
		var m models.AssistantMessage
		var images, files []byte
		if errScan := rows.Scan(&m.ID, &m.UserID, &m.Role, &m.Content, &images, &files, &m.CreatedAt); errScan != nil {
			log.Printf("GetAssistantHistory: ошибка сканирования реплики: %v", errScan)
			continue
		}
		if len(images) > 0 {
			if errJSON := json.Unmarshal(images, &m.Images); errJSON != nil {
				log.Printf("GetAssistantHistory: ошибка разбора images реплики %s: %v", m.ID, errJSON)
			}
		}
		if len(files) > 0 {
			if errJSON := json.Unmarshal(files, &m.Files); errJSON != nil {
				log.Printf("GetAssistantHistory: ошибка разбора files реплики %s: %v", m.ID, errJSON)
			}
		}
		history = append(history, m)
	}
	return history, rows.Err()
}

// SaveAssistantMessage сохраняет реплику (пользователя или ассистента) в историю.
func SaveAssistantMessage(m models.AssistantMessage) (models.AssistantMessage, error) {
	var images, files interface{}
	if len(m.Images) > 0 {
		b, err := json.Marshal(m.Images)
		if err != nil {
			return m, err
		}
		images = b
	} else {
		images = sql.NullString{}
	}
	if len(m.Files) > 0 {
		b, err := json.Marshal(m.Files)
		if err != nil {
			return m, err
		}
		files = b
	} else {
		files = sql.NullString{}
	}

	err := DB.QueryRow(`
        INSERT INTO assistant_chats (user_id, role, content, images, files)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at`,
		m.UserID, m.Role, m.Content, images, files).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		log.Printf("SaveAssistantMessage: ошибка сохранения реплики (user %s, role %s): %v", m.UserID, m.Role, err)
		return m, err
	}
	return m, nil
}

// ClearAssistantHistory удаляет историю чата пользователя с ассистентом.
func ClearAssistantHistory(userID string) error {
	_, err := DB.Exec(`DELETE FROM assistant_chats WHERE user_id = $1`, userID)
	if err != nil {
		log.Printf("ClearAssistantHistory: ошибка очистки истории для %s: %v", userID, err)
		return err
	}
	return nil
}

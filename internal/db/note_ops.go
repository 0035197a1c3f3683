package db

import (
	"log"

	"lumenr/internal/models"
)

// GetNotesForUser возвращает заметки пользователя, свежие первыми.
func GetNotesForUser(userID string) ([]models.Note, error) {
	rows, err := DB.Query(`
        SELECT id, user_id, title, content, created_at, updated_at
        FROM notes
        WHERE user_id = $1
        ORDER BY updated_at DESC`, userID)
	if err != nil {
		log.Printf("GetNotesForUser: ошибка получения заметок пользователя %s: %v", userID, err)
		return nil, err
	}
	defer rows.Close()

	var notes []models.Note
	for rows.Next() {
		var n models.Note
		if errScan := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt); errScan != nil {
			log.Printf("GetNotesForUser: ошибка сканирования заметки: %v", errScan)
			continue
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// CreateNote создает заметку.
func CreateNote(userID, title string, content models.NullString) (models.Note, error) {
	var n models.Note
	err := DB.QueryRow(`
        INSERT INTO notes (user_id, title, content)
        VALUES ($1, $2, $3)
        RETURNING id, user_id, title, content, created_at, updated_at`,
		userID, title, content).Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		log.Printf("CreateNote: ошибка создания заметки '%s': %v", title, err)
		return n, err
	}
	return n, nil
}

// UpdateNote обновляет заголовок и содержимое заметки владельца.
func UpdateNote(noteID, userID, title string, content models.NullString) error {
	_, err := DB.Exec(`
        UPDATE notes SET title = $1, content = $2, updated_at = NOW()
        WHERE id = $3 AND user_id = $4`, title, content, noteID, userID)
	if err != nil {
		log.Printf("UpdateNote: ошибка обновления заметки %s: %v", noteID, err)
		return err
	}
	return nil
}

// DeleteNote удаляет заметку владельца.
func DeleteNote(noteID, userID string) error {
	_, err := DB.Exec(`DELETE FROM notes WHERE id = $1 AND user_id = $2`, noteID, userID)
	if err != nil {
		log.Printf("DeleteNote: ошибка удаления заметки %s: %v", noteID, err)
		return err
	}
	return nil
}

// CreateNoteNotification сохраняет уведомление о заметке, отправленной коллеге.
func CreateNoteNotification(n models.NoteNotification) error {
	_, err := DB.Exec(`
        INSERT INTO note_notifications (recipient_id, sender_id, note_title, note_content, sender_name)
        VALUES ($1, $2, $3, $4, $5)`,
		n.RecipientID, n.SenderID, n.NoteTitle, n.NoteContent, n.SenderName)
	if err != nil {
		log.Printf("CreateNoteNotification: ошибка создания уведомления для %s: %v", n.RecipientID, err)
		return err
	}
	return nil
}

// GetNoteNotifications возвращает уведомления о заметках для получателя.
func GetNoteNotifications(recipientID string) ([]models.NoteNotification, error) {
	rows, err := DB.Query(`
        SELECT id, recipient_id, sender_id, note_title, note_content, sender_name, created_at
        FROM note_notifications
        WHERE recipient_id = $1
        ORDER BY created_at DESC`, recipientID)
	if err != nil {
		log.Printf("GetNoteNotifications: ошибка получения уведомлений для %s: %v", recipientID, err)
		return nil, err
	}
	defer rows.Close()

	var items []models.NoteNotification
	for rows.Next() {
		var n models.NoteNotification
		if errScan := rows.Scan(&n.ID, &n.RecipientID, &n.SenderID, &n.NoteTitle, &n.NoteContent, &n.SenderName, &n.CreatedAt); errScan != nil {
			continue
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

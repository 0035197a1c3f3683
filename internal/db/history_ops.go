package db

import (
	"log"

	"lumenr/internal/models"
)

// AddHistoryLog добавляет запись в журнал действий пользователя.
func AddHistoryLog(userID, category, description string) error {
	_, err := DB.Exec(`
        INSERT INTO history_logs (user_id, category, description)
        VALUES ($1, $2, $3)`, userID, category, description)
	if err != nil {
		log.Printf("AddHistoryLog: ошибка добавления записи журнала для %s: %v", userID, err)
		return err
	}
	return nil
}

// GetHistoryLogs возвращает журнал пользователя, свежие записи первыми.
// Пустая категория означает "все категории".
func GetHistoryLogs(userID, category string) ([]models.HistoryLog, error) {
	query := `
        SELECT id, user_id, category, description, created_at
        FROM history_logs
        WHERE user_id = $1`
	args := []interface{}{userID}
	if category != "" {
		query += ` AND category = $2`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := DB.Query(query, args...)
	if err != nil {
		log.Printf("GetHistoryLogs: ошибка получения журнала пользователя %s: %v", userID, err)
		return nil, err
	}
	defer rows.Close()

	var logs []models.HistoryLog
	for rows.Next() {
		var h models.HistoryLog
		if errScan := rows.Scan(&h.ID, &h.UserID, &h.Category, &h.Description, &h.CreatedAt); errScan != nil {
			log.Printf("GetHistoryLogs: ошибка сканирования записи журнала: %v", errScan)
			continue
		}
		logs = append(logs, h)
	}
	return logs, rows.Err()
}

package db

import (
	"log"
	"time"

	"lumenr/internal/models"
)

const taskColumns = `id, user_id, title, description, status, priority, due_date, project_id,
               reminder_enabled, reminder_days_before, reminder_hours_before, created_at, updated_at`

func scanTask(row interface{ Scan(...interface{}) error }) (models.Task, error) {
	var t models.Task
	err := row.Scan(
		&t.ID, &t.UserID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&t.DueDate, &t.ProjectID, &t.ReminderEnabled, &t.ReminderDaysBefore,
		&t.ReminderHoursBefore, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

// GetTasksForUser возвращает задачи пользователя, отсортированные по сроку.
func GetTasksForUser(userID string) ([]models.Task, error) {
	rows, err := DB.Query(`
        SELECT `+taskColumns+`
        FROM tasks
        WHERE user_id = $1
        ORDER BY due_date ASC NULLS LAST, created_at ASC`, userID)
	if err != nil {
		log.Printf("GetTasksForUser: ошибка получения задач пользователя %s: %v", userID, err)
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, errScan := scanTask(rows)
		if errScan != nil {
			log.Printf("GetTasksForUser: ошибка сканирования задачи: %v", errScan)
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// GetTasksForPeriod возвращает задачи пользователей за период (для Excel-отчета).
// Пустой userID означает "все пользователи".
func GetTasksForPeriod(userID string, from, to time.Time) ([]models.Task, error) {
	query := `
        SELECT ` + taskColumns + `
        FROM tasks
        WHERE created_at >= $1 AND created_at < $2`
	args := []interface{}{from, to}
	if userID != "" {
		query += ` AND user_id = $3`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at ASC`

	rows, err := DB.Query(query, args...)
	if err != nil {
		log.Printf("GetTasksForPeriod: ошибка получения задач за период: %v", err)
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, errScan := scanTask(rows)
		if errScan != nil {
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// CreateTask создает задачу и возвращает сохраненную строку.
func CreateTask(t models.Task) (models.Task, error) {
	err := DB.QueryRow(`
        INSERT INTO tasks (user_id, title, description, status, priority, due_date, project_id,
                           reminder_enabled, reminder_days_before, reminder_hours_before)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING `+taskColumns,
		t.UserID, t.Title, t.Description, t.Status, t.Priority, t.DueDate, t.ProjectID,
		t.ReminderEnabled, t.ReminderDaysBefore, t.ReminderHoursBefore).Scan(
		&t.ID, &t.UserID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&t.DueDate, &t.ProjectID, &t.ReminderEnabled, &t.ReminderDaysBefore,
		&t.ReminderHoursBefore, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		log.Printf("CreateTask: ошибка создания задачи '%s': %v", t.Title, err)
		return t, err
	}
	return t, nil
}

// UpdateTask обновляет поля задачи. Обновление выполняется только для владельца.
// Отметка об отправленном напоминании сбрасывается, чтобы измененный срок сработал заново.
func UpdateTask(t models.Task) error {
	result, err := DB.Exec(`
        UPDATE tasks
        SET title = $1, description = $2, status = $3, priority = $4, due_date = $5,
            project_id = $6, reminder_enabled = $7, reminder_days_before = $8,
            reminder_hours_before = $9, reminder_sent_at = NULL, updated_at = NOW()
        WHERE id = $10 AND user_id = $11`,
		t.Title, t.Description, t.Status, t.Priority, t.DueDate, t.ProjectID,
		t.ReminderEnabled, t.ReminderDaysBefore, t.ReminderHoursBefore, t.ID, t.UserID)
	if err != nil {
		log.Printf("UpdateTask: ошибка обновления задачи %s: %v", t.ID, err)
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		log.Printf("UpdateTask: задача %s не найдена или принадлежит другому пользователю.", t.ID)
	}
	return nil
}

// TaskReminder связывает задачу с Telegram-чатом владельца для отправки напоминания.
type TaskReminder struct {
	Task         models.Task
	TelegramChat models.NullInt64
}

// GetTasksDueForReminder возвращает задачи, по которым пора напомнить: напоминание
// включено, срок задан, окно (due_date минус дни/часы) уже наступило, уведомление
// еще не отправлялось и задача не завершена.
func GetTasksDueForReminder(now time.Time) ([]TaskReminder, error) {
	rows, err := DB.Query(`
        SELECT t.id, t.user_id, t.title, t.description, t.status, t.priority, t.due_date,
               t.project_id, t.reminder_enabled, t.reminder_days_before, t.reminder_hours_before,
               t.created_at, t.updated_at, u.telegram_chat_id
        FROM tasks t
        JOIN users u ON u.id = t.user_id
        WHERE t.reminder_enabled = TRUE
          AND t.due_date IS NOT NULL
          AND t.reminder_sent_at IS NULL
          AND t.status <> 'Completed'
          AND t.due_date - (t.reminder_days_before * INTERVAL '1 day')
                         - (t.reminder_hours_before * INTERVAL '1 hour') <= $1`, now)
	if err != nil {
		log.Printf("GetTasksDueForReminder: ошибка выборки задач для напоминаний: %v", err)
		return nil, err
	}
	defer rows.Close()

	var reminders []TaskReminder
	for rows.Next() {
		var r TaskReminder
		t := &r.Task
		errScan := rows.Scan(
			&t.ID, &t.UserID, &t.Title, &t.Description, &t.Status, &t.Priority,
			&t.DueDate, &t.ProjectID, &t.ReminderEnabled, &t.ReminderDaysBefore,
			&t.ReminderHoursBefore, &t.CreatedAt, &t.UpdatedAt, &r.TelegramChat,
		)
		if errScan != nil {
			log.Printf("GetTasksDueForReminder: ошибка сканирования: %v", errScan)
			continue
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// MarkTaskReminderSent фиксирует отправку напоминания, чтобы не слать его повторно.
func MarkTaskReminderSent(taskID string, at time.Time) error {
	_, err := DB.Exec(`UPDATE tasks SET reminder_sent_at = $1 WHERE id = $2`, at, taskID)
	if err != nil {
		log.Printf("MarkTaskReminderSent: ошибка обновления задачи %s: %v", taskID, err)
	}
	return err
}

// DeleteTask удаляет задачу владельца.
func DeleteTask(taskID, userID string) error {
	_, err := DB.Exec(`DELETE FROM tasks WHERE id = $1 AND user_id = $2`, taskID, userID)
	if err != nil {
		log.Printf("DeleteTask: ошибка удаления задачи %s: %v", taskID, err)
		return err
	}
	return nil
}

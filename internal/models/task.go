package models

import "time"

// Task represents a task on the board and the calendar.
type Task struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"user_id"`
	Title              string     `json:"title"`
	Description        NullString `json:"description"`
	Status             string     `json:"status"`
	Priority           string     `json:"priority"`
	DueDate            NullTime   `json:"due_date"`
	ProjectID          NullString `json:"project_id"`
	ReminderEnabled    bool       `json:"reminder_enabled"`
	ReminderDaysBefore int        `json:"reminder_days_before"`
	ReminderHoursBefore int       `json:"reminder_hours_before"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Project группирует задачи; календарь и отчеты фильтруют по активным проектам.
type Project struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

package api

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"lumenr/internal/constants"
	"lumenr/internal/db"
	"lumenr/internal/models"
	"lumenr/internal/notify"
	"lumenr/internal/reports"
	"lumenr/internal/utils"
)

// TaskRequest - структура запроса на создание/обновление задачи.
type TaskRequest struct {
	Title               string `json:"title"`
	Description         string `json:"description"`
	Status              string `json:"status"`
	Priority            string `json:"priority"`
	DueDate             string `json:"due_date"` // формат 2006-01-02
	ProjectID           string `json:"project_id"`
	ReminderEnabled     bool   `json:"reminder_enabled"`
	ReminderDaysBefore  int    `json:"reminder_days_before"`
	ReminderHoursBefore int    `json:"reminder_hours_before"`
}

func taskFromRequest(req TaskRequest, userID string) (models.Task, error) {
	t := models.Task{
		UserID:              userID,
		Title:               strings.TrimSpace(req.Title),
		Status:              req.Status,
		Priority:            req.Priority,
		ReminderEnabled:     req.ReminderEnabled,
		ReminderDaysBefore:  req.ReminderDaysBefore,
		ReminderHoursBefore: req.ReminderHoursBefore,
	}
	if t.Title == "" {
		return t, fmt.Errorf("название задачи обязательно")
	}
	if t.Status == "" {
		t.Status = constants.TASK_STATUS_TODO
	}
	if !utils.IsValidTaskStatus(t.Status) {
		return t, fmt.Errorf("недопустимый статус задачи: '%s'", t.Status)
	}
	if t.Priority == "" {
		t.Priority = constants.TASK_PRIORITY_MEDIUM
	}
	if !utils.IsValidTaskPriority(t.Priority) {
		return t, fmt.Errorf("недопустимый приоритет задачи: '%s'", t.Priority)
	}
	if desc := strings.TrimSpace(req.Description); desc != "" {
		t.Description = models.NewNullString(desc)
	}
	if req.DueDate != "" {
		due, err := time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			return t, fmt.Errorf("некорректный срок задачи: '%s'", req.DueDate)
		}
		t.DueDate = models.NewNullTime(due)
	}
	if req.ProjectID != "" {
		t.ProjectID = models.NewNullString(req.ProjectID)
	}
	return t, nil
}

// GetTasks возвращает задачи текущего пользователя.
func (d *ApiDependencies) GetTasks(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)
	tasks, err := db.GetTasksForUser(user.ID)
	if err != nil {
		log.Printf("GetTasks: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Не удалось загрузить задачи.")
		return
	}
	writeJSONSuccess(w, "", tasks)
}

// CreateTask создает задачу.
func (d *ApiDependencies) CreateTask(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)
	var req TaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	task, err := taskFromRequest(req, user.ID)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := db.CreateTask(task)
	if err != nil {
		log.Printf("CreateTask: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Не удалось создать задачу.")
		return
	}
	_ = db.AddHistoryLog(user.ID, constants.HISTORY_CATEGORY_GENERAL, fmt.Sprintf("Создана задача \"%s\"", created.Title))
	writeJSONSuccess(w, "Задача создана.", created)
}

// UpdateTask обновляет задачу текущего пользователя.
func (d *ApiDependencies) UpdateTask(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)
	var req TaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	task, err := taskFromRequest(req, user.ID)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	task.ID = chi.URLParam(r, "id")
	if err := db.UpdateTask(task); err != nil {
		log.Printf("UpdateTask: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Не удалось обновить задачу.")
		return
	}
	writeJSONSuccess(w, "Задача обновлена.", nil)
}

// DeleteTask удаляет задачу текущего пользователя.
func (d *ApiDependencies) DeleteTask(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)
	if err := db.DeleteTask(chi.URLParam(r, "id"), user.ID); err != nil {
		log.Printf("DeleteTask: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Не удалось удалить задачу.")
		return
	}
	writeJSONSuccess(w, "Задача удалена.", nil)
}

// GetProjects возвращает активные проекты пользователя.
func (d *ApiDependencies) GetProjects(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)
	projects, err := db.GetActiveProjects(user.ID)
	if err != nil {
		log.Printf("GetProjects: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Не удалось загрузить проекты.")
		return
	}
	writeJSONSuccess(w, "", projects)
}

// ProjectRequest - структура запроса на создание проекта.
type ProjectRequest struct {
	Name string `json:"name"`
}

// CreateProject создает проект.
func (d *ApiDependencies) CreateProject(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)
	var req ProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeJSONError(w, http.StatusBadRequest, "Название проекта обязательно.")
		return
	}
	project, err := db.CreateProject(user.ID, name)
	if err != nil {
		log.Printf("CreateProject: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Не удалось создать проект.")
		return
	}
	_ = db.AddHistoryLog(user.ID, constants.HISTORY_CATEGORY_PROJECT, fmt.Sprintf("Создан проект \"%s\"", name))
	writeJSONSuccess(w, "Проект создан.", project)
}

// ArchiveProject архивирует проект.
func (d *ApiDependencies) ArchiveProject(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)
	if err := db.ArchiveProject(chi.URLParam(r, "id"), user.ID); err != nil {
		log.Printf("ArchiveProject: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Не удалось архивировать проект.")
		return
	}
	writeJSONSuccess(w, "Проект архивирован.", nil)
}

// GetHistory возвращает журнал действий текущего пользователя.
// Параметр ?category= сужает выдачу до одной категории.
func (d *ApiDependencies) GetHistory(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)
	logs, err := db.GetHistoryLogs(user.ID, r.URL.Query().Get("category"))
	if err != nil {
		log.Printf("GetHistory: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Не удалось загрузить журнал.")
		return
	}
	writeJSONSuccess(w, "", logs)
}

// TasksReport отдает Excel-отчет по задачам за период (?from=...&to=...,
// формат 2006-01-02). Админ с параметром all=1 получает отчет по всем.
func (d *ApiDependencies) TasksReport(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)

	from, err := time.Parse("2006-01-02", r.URL.Query().Get("from"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Некорректный параметр from.")
		return
	}
	to, err := time.Parse("2006-01-02", r.URL.Query().Get("to"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Некорректный параметр to.")
		return
	}
	to = to.Add(24*time.Hour - time.Second) // включительно до конца дня

	userID := user.ID
	if r.URL.Query().Get("all") == "1" {
		if !utils.IsRoleOrHigher(user.Role, constants.ROLE_ADMIN) {
			writeJSONError(w, http.StatusForbidden, "Отчет по всем пользователям доступен только администратору.")
			return
		}
		userID = ""
	}

	data, fileName, err := reports.GenerateTasksExcel(userID, from, to)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Не удалось сформировать отчет.")
		return
	}

	// С параметром to_telegram=1 отчет дополнительно уходит в привязанный чат.
	if r.URL.Query().Get("to_telegram") == "1" {
		if !user.TelegramChat.Valid {
			writeJSONError(w, http.StatusBadRequest, "Telegram-чат не привязан к профилю.")
			return
		}
		if err := notify.Client.SendDocument(user.TelegramChat.Int64, fileName, data); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "Не удалось отправить отчет в Telegram.")
			return
		}
		writeJSONSuccess(w, "Отчет отправлен в Telegram.", nil)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.Write(data)
}

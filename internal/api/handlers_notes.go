package api

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"lumenr/internal/constants"
	"lumenr/internal/db"
	"lumenr/internal/models"
	"lumenr/internal/notify"
	"lumenr/internal/utils"
)

// NoteRequest - структура запроса на создание/обновление заметки.
type NoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// GetNotes возвращает заметки текущего пользователя.
func (d *ApiDependencies) GetNotes(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)
	notes, err := db.GetNotesForUser(user.ID)
	if err != nil {
		log.Printf("GetNotes: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Не удалось загрузить заметки.")
		return
	}
	writeJSONSuccess(w, "", notes)
}

// CreateNote создает заметку.
func (d *ApiDependencies) CreateNote(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)
	var req NoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		writeJSONError(w, http.StatusBadRequest, "Заголовок заметки обязателен.")
		return
	}
	content := models.NullString{}
	if c := strings.TrimSpace(req.Content); c != "" {
		content = models.NewNullString(c)
	}
	note, err := db.CreateNote(user.ID, title, content)
	if err != nil {
		log.Printf("CreateNote: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Не удалось создать заметку.")
		return
	}
	writeJSONSuccess(w, "Заметка создана.", note)
}

// UpdateNote обновляет заметку текущего пользователя.
func (d *ApiDependencies) UpdateNote(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)
	var req NoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		writeJSONError(w, http.StatusBadRequest, "Заголовок заметки обязателен.")
		return
	}
	content := models.NullString{}
	if c := strings.TrimSpace(req.Content); c != "" {
		content = models.NewNullString(c)
	}
	if err := db.UpdateNote(chi.URLParam(r, "id"), user.ID, title, content); err != nil {
		log.Printf("UpdateNote: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Не удалось обновить заметку.")
		return
	}
	writeJSONSuccess(w, "Заметка обновлена.", nil)
}

// DeleteNote удаляет заметку текущего пользователя.
func (d *ApiDependencies) DeleteNote(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)
	if err := db.DeleteNote(chi.URLParam(r, "id"), user.ID); err != nil {
		log.Printf("DeleteNote: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Не удалось удалить заметку.")
		return
	}
	writeJSONSuccess(w, "Заметка удалена.", nil)
}

// ShareNoteRequest - структура запроса на отправку заметки коллеге.
type ShareNoteRequest struct {
	RecipientID string `json:"recipient_id"`
}

// ShareNote делится заметкой с коллегой: создает уведомление о заметке и
// дублирует ее текст личным сообщением в беседе с получателем. Если
// получатель не в сети, уходит Telegram-уведомление.
func (d *ApiDependencies) ShareNote(w http.ResponseWriter, r *http.Request) {
	s, user, ok := d.store(w, r)
	if !ok {
		return
	}
	var req ShareNoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.RecipientID == "" || req.RecipientID == user.ID {
		writeJSONError(w, http.StatusBadRequest, "Некорректный получатель.")
		return
	}

	// Заметка должна принадлежать отправителю.
	noteID := chi.URLParam(r, "id")
	notes, err := db.GetNotesForUser(user.ID)
	if err != nil {
		log.Printf("ShareNote: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Не удалось отправить заметку.")
		return
	}
	var note *models.Note
	for i := range notes {
		if notes[i].ID == noteID {
			note = &notes[i]
			break
		}
	}
	if note == nil {
		writeJSONError(w, http.StatusNotFound, "Заметка не найдена.")
		return
	}

	if err := db.CreateNoteNotification(models.NoteNotification{
		RecipientID: req.RecipientID,
		SenderID:    user.ID,
		NoteTitle:   note.Title,
		NoteContent: note.Content,
		SenderName:  user.FullName(),
	}); err != nil {
		log.Printf("ShareNote: ошибка создания уведомления: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Не удалось отправить заметку.")
		return
	}

	// Дублируем личным сообщением.
	conversationID, err := s.CreateDirect(req.RecipientID)
	if err == nil {
		text := fmt.Sprintf("Заметка \"%s\"", note.Title)
		if note.Content.Valid {
			text += "\n" + utils.TruncatePreview(note.Content.String, 500)
		}
		if _, err := s.OpenConversation(conversationID); err == nil {
			s.Send(text)
		}
	}

	if notify.Client != nil && !d.Hub.IsOnline(req.RecipientID) {
		if recipient, err := db.GetUserByID(req.RecipientID); err == nil && recipient.TelegramChat.Valid {
			notify.Client.NotifySharedNote(recipient.TelegramChat.Int64, user.FullName(), note.Title)
		}
	}

	writeJSONSuccess(w, "Заметка отправлена коллеге.", nil)
}

// NoteToCalendar создает из заметки задачу "Note: <заголовок>" в календаре.
func (d *ApiDependencies) NoteToCalendar(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)
	noteID := chi.URLParam(r, "id")
	notes, err := db.GetNotesForUser(user.ID)
	if err != nil {
		log.Printf("NoteToCalendar: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Не удалось создать задачу из заметки.")
		return
	}
	for _, note := range notes {
		if note.ID != noteID {
			continue
		}
		task := models.Task{
			UserID:      user.ID,
			Title:       "Note: " + note.Title,
			Description: note.Content,
			Status:      constants.TASK_STATUS_TODO,
			Priority:    constants.TASK_PRIORITY_MEDIUM,
		}
		created, err := db.CreateTask(task)
		if err != nil {
			log.Printf("NoteToCalendar: ошибка создания задачи: %v", err)
			writeJSONError(w, http.StatusInternalServerError, "Не удалось создать задачу из заметки.")
			return
		}
		writeJSONSuccess(w, "Задача создана из заметки.", created)
		return
	}
	writeJSONError(w, http.StatusNotFound, "Заметка не найдена.")
}

// GetNoteNotifications возвращает уведомления о заметках, отправленных
// текущему пользователю.
func (d *ApiDependencies) GetNoteNotifications(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)
	items, err := db.GetNoteNotifications(user.ID)
	if err != nil {
		log.Printf("GetNoteNotifications: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Не удалось загрузить уведомления.")
		return
	}
	writeJSONSuccess(w, "", items)
}

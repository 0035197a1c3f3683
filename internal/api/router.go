package api

import (
	"github.com/go-chi/chi/v5"

	"lumenr/internal/ai"
	"lumenr/internal/chat"
	"lumenr/internal/config"
	"lumenr/internal/constants"
	"lumenr/internal/realtime"
	"lumenr/internal/session"
)

// ApiDependencies содержит зависимости для обработчиков API.
type ApiDependencies struct {
	Config    *config.Config
	Bus       *realtime.Bus
	Hub       *realtime.Hub
	Sessions  *session.Manager
	Stores    *chat.Registry
	Assistant *ai.Client
}

// publishUserUpdate рассылает событие изменения пользователя, чтобы
// справочники и значки присутствия у остальных обновились.
func (d *ApiDependencies) publishUserUpdate(userID string) {
	d.Bus.Publish(realtime.Event{
		Table: constants.TABLE_USERS,
		Type:  constants.EVENT_UPDATE,
		Row:   map[string]string{"id": userID},
	})
}

// SetupRoutes настраивает все маршруты API.
func SetupRoutes(r *chi.Mux, deps *ApiDependencies) {
	// --- Публичные маршруты ---
	r.Post("/api/auth/register", deps.Register)
	r.Post("/api/auth/login", deps.Login)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(deps.Config.JWTSecret))

		r.Post("/api/auth/logout", deps.Logout)
		r.Get("/api/user/profile", deps.GetProfile)
		r.Put("/api/user/profile", deps.UpdateProfile)
		r.Put("/api/user/status", deps.UpdateStatus)
		r.Post("/api/user/telegram", deps.LinkTelegram)
		r.Get("/api/user/invite-qr", deps.InviteQR)

		// --- Мессенджер ---
		r.Get("/api/directory", deps.GetDirectory)
		r.Get("/api/conversations", deps.GetConversations)
		r.Post("/api/conversations/direct", deps.CreateDirectConversation)
		r.Post("/api/conversations/group", deps.CreateGroupConversation)
		r.Get("/api/conversations/{id}/messages", deps.GetMessages)
		r.Post("/api/conversations/{id}/messages", deps.SendMessage)
		r.Get("/api/conversations/draft", deps.GetDraft)
		r.Put("/api/conversations/draft", deps.SaveDraft)

		// --- Задачи, проекты, журнал ---
		r.Get("/api/tasks", deps.GetTasks)
		r.Post("/api/tasks", deps.CreateTask)
		r.Put("/api/tasks/{id}", deps.UpdateTask)
		r.Delete("/api/tasks/{id}", deps.DeleteTask)
		r.Get("/api/projects", deps.GetProjects)
		r.Post("/api/projects", deps.CreateProject)
		r.Post("/api/projects/{id}/archive", deps.ArchiveProject)
		r.Get("/api/history", deps.GetHistory)
		r.Get("/api/reports/tasks", deps.TasksReport)

		// --- Заметки ---
		r.Get("/api/notes", deps.GetNotes)
		r.Post("/api/notes", deps.CreateNote)
		r.Put("/api/notes/{id}", deps.UpdateNote)
		r.Delete("/api/notes/{id}", deps.DeleteNote)
		r.Post("/api/notes/{id}/share", deps.ShareNote)
		r.Post("/api/notes/{id}/to-calendar", deps.NoteToCalendar)
		r.Get("/api/note-notifications", deps.GetNoteNotifications)

		// --- AI-ассистент ---
		r.Get("/api/assistant/history", deps.GetAssistantHistory)
		r.Post("/api/assistant/chat", deps.AssistantChat)
		r.Delete("/api/assistant/history", deps.ClearAssistantHistory)

		// --- Websocket (токен приходит query-параметром) ---
		r.Get("/api/ws", deps.ServeWebsocket)

		// --- Администрирование ролей ---
		r.Route("/api/admin", func(r chi.Router) {
			r.Use(RoleMiddleware(constants.ROLE_ADMIN))
			r.Get("/roles", deps.GetAllRoles)
			r.Post("/roles", deps.AddRole)
			r.Delete("/roles", deps.RemoveRole)
		})
	})
}

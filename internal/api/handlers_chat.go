package api

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"lumenr/internal/chat"
	"lumenr/internal/db"
	"lumenr/internal/models"
	"lumenr/internal/notify"
)

// store достает view-model чата текущего пользователя. При отказе ответ
// уже записан: 401 без пользователя в контексте, 500 при ошибке создания.
func (d *ApiDependencies) store(w http.ResponseWriter, r *http.Request) (*chat.Store, models.User, bool) {
	user, ok := currentUser(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "Требуется авторизация.")
		return nil, models.User{}, false
	}
	s, err := d.Stores.Get(user.ID)
	if err != nil {
		log.Printf("ошибка создания view-model чата для %s: %v", user.ID, err)
		writeJSONError(w, http.StatusInternalServerError, "Не удалось подготовить сессию.")
		return nil, user, false
	}
	return s, user, true
}

// GetDirectory возвращает справочник коллег со статусами и ролями.
func (d *ApiDependencies) GetDirectory(w http.ResponseWriter, r *http.Request) {
	s, _, ok := d.store(w, r)
	if !ok {
		return
	}
	if err := s.LoadDirectory(); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Не удалось загрузить справочник.")
		return
	}
	writeJSONSuccess(w, "", s.Directory())
}

// GetConversations возвращает беседы пользователя с превью и счетчиками,
// отсортированные по непрочитанным и последней активности.
func (d *ApiDependencies) GetConversations(w http.ResponseWriter, r *http.Request) {
	s, _, ok := d.store(w, r)
	if !ok {
		return
	}
	if err := s.LoadConversations(); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Не удалось загрузить беседы.")
		return
	}
	writeJSONSuccess(w, "", s.Conversations())
}

// GetMessages открывает беседу: возвращает историю и проставляет отметки
// прочтения на чужих непрочитанных сообщениях.
func (d *ApiDependencies) GetMessages(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "id")
	s, user, ok := d.store(w, r)
	if !ok {
		return
	}

	isMember, err := db.IsConversationMember(conversationID, user.ID)
	if err != nil || !isMember {
		writeJSONError(w, http.StatusForbidden, "Вы не участник этой беседы.")
		return
	}

	msgs, err := s.OpenConversation(conversationID)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Не удалось загрузить сообщения.")
		return
	}
	writeJSONSuccess(w, "", msgs)
}

// SendMessageRequest - структура запроса на отправку сообщения.
type SendMessageRequest struct {
	Text string `json:"text"`
}

// SendMessage отправляет сообщение через конвейер оптимистичной отправки
// view-model. Получатели не в сети дополнительно уведомляются в Telegram.
func (d *ApiDependencies) SendMessage(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "id")
	s, user, ok := d.store(w, r)
	if !ok {
		return
	}
	var req SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSONError(w, http.StatusBadRequest, "Текст сообщения пуст.")
		return
	}

	isMember, err := db.IsConversationMember(conversationID, user.ID)
	if err != nil || !isMember {
		writeJSONError(w, http.StatusForbidden, "Вы не участник этой беседы.")
		return
	}

	if _, err := s.OpenConversation(conversationID); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Не удалось открыть беседу.")
		return
	}
	tempID := s.Send(req.Text)
	if tempID == "" {
		writeJSONError(w, http.StatusBadRequest, "Сообщение не отправлено.")
		return
	}

	go d.notifyOfflineMembers(conversationID, user, req.Text)
	writeJSONSuccess(w, "Сообщение отправлено.", map[string]string{"temp_id": tempID})
}

// notifyOfflineMembers шлет Telegram-уведомления участникам беседы,
// которые сейчас не подключены по websocket.
func (d *ApiDependencies) notifyOfflineMembers(conversationID string, sender models.User, text string) {
	if notify.Client == nil {
		return
	}
	memberIDs, err := db.GetConversationMemberIDs(conversationID)
	if err != nil {
		log.Printf("notifyOfflineMembers: ошибка получения участников %s: %v", conversationID, err)
		return
	}
	var offline []string
	for _, id := range memberIDs {
		if id != sender.ID && !d.Hub.IsOnline(id) {
			offline = append(offline, id)
		}
	}
	if len(offline) == 0 {
		return
	}
	users, err := db.GetUsersByIDs(offline)
	if err != nil {
		log.Printf("notifyOfflineMembers: ошибка получения получателей: %v", err)
		return
	}
	for _, u := range users {
		if u.TelegramChat.Valid {
			notify.Client.NotifyNewMessage(u.TelegramChat.Int64, sender.FullName(), text)
		}
	}
}

// CreateDirectRequest - структура запроса на личный диалог.
type CreateDirectRequest struct {
	RecipientID string `json:"recipient_id"`
}

// CreateDirectConversation начинает (или возвращает существующий) личный
// диалог с коллегой.
func (d *ApiDependencies) CreateDirectConversation(w http.ResponseWriter, r *http.Request) {
	s, user, ok := d.store(w, r)
	if !ok {
		return
	}
	var req CreateDirectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.RecipientID == "" || req.RecipientID == user.ID {
		writeJSONError(w, http.StatusBadRequest, "Некорректный получатель.")
		return
	}
	id, err := s.CreateDirect(req.RecipientID)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Не удалось создать беседу.")
		return
	}
	writeJSONSuccess(w, "", map[string]string{"conversation_id": id})
}

// CreateGroupRequest - структура запроса на групповую беседу.
type CreateGroupRequest struct {
	Name      string   `json:"name"`
	MemberIDs []string `json:"member_ids"`
}

// CreateGroupConversation создает групповую беседу.
func (d *ApiDependencies) CreateGroupConversation(w http.ResponseWriter, r *http.Request) {
	s, _, ok := d.store(w, r)
	if !ok {
		return
	}
	var req CreateGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := s.CreateGroup(req.Name, req.MemberIDs)
	if err != nil {
		if errors.Is(err, chat.ErrNoMembers) {
			writeJSONError(w, http.StatusBadRequest, "Нужно выбрать хотя бы одного участника.")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "Не удалось создать группу.")
		return
	}
	writeJSONSuccess(w, "Группа создана.", map[string]string{"conversation_id": id})
}

// DraftRequest - структура запроса на сохранение черновика сообщения.
type DraftRequest struct {
	Text string `json:"text"`
}

// GetDraft возвращает черновик поля ввода из view-model. После неудачной
// отправки сюда возвращается исходный текст сообщения.
func (d *ApiDependencies) GetDraft(w http.ResponseWriter, r *http.Request) {
	s, _, ok := d.store(w, r)
	if !ok {
		return
	}
	writeJSONSuccess(w, "", map[string]string{"text": s.Input()})
}

// SaveDraft сохраняет черновик поля ввода, чтобы он пережил переподключение.
func (d *ApiDependencies) SaveDraft(w http.ResponseWriter, r *http.Request) {
	s, _, ok := d.store(w, r)
	if !ok {
		return
	}
	var req DraftRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.SetInput(req.Text)
	writeJSONSuccess(w, "", nil)
}

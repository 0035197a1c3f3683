package api

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"lumenr/internal/constants"
	"lumenr/internal/db"
	"lumenr/internal/realtime"
	"lumenr/internal/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Браузерные клиенты ходят с других origin; доступ уже проверен токеном.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebsocket подключает пользователя к хабу realtime-событий.
// Первое подключение переводит его в Available, последнее отключение - в
// Away (этим управляет хаб через менеджер сессий).
func (d *ApiDependencies) ServeWebsocket(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "Требуется авторизация.")
		return
	}

	// View-model создается до апгрейда, чтобы подписки уже были живы.
	s, err := d.Stores.Get(user.ID)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Не удалось подготовить сессию.")
		return
	}

	// Каждое изменение view-model превращается в легкий sync-фрейм:
	// клиент по нему перечитывает состояние через REST.
	userID := user.ID
	s.SetOnChange(func() {
		d.Hub.SendToUsers([]string{userID}, realtime.Event{
			Table: constants.TABLE_STORE,
			Type:  constants.EVENT_UPDATE,
		})
	})

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ServeWebsocket: ошибка апгрейда для %s: %v", user.ID, err)
		return
	}
	d.Hub.Add(user.ID, conn)
	log.Printf("Пользователь %s подключился по websocket.", user.ID)
}

// InviteQR отдает PNG с QR-кодом пригласительной ссылки.
func (d *ApiDependencies) InviteQR(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "Требуется авторизация.")
		return
	}
	png, err := utils.GenerateInviteQR(d.Config.AppBaseURL, user.ID)
	if err != nil {
		log.Printf("InviteQR: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Не удалось сгенерировать QR-код.")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// LinkTelegramRequest - структура запроса на привязку Telegram-чата.
type LinkTelegramRequest struct {
	ChatID int64 `json:"chat_id"`
}

// LinkTelegram привязывает Telegram-чат для уведомлений офлайн.
func (d *ApiDependencies) LinkTelegram(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "Требуется авторизация.")
		return
	}
	var req LinkTelegramRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ChatID == 0 {
		writeJSONError(w, http.StatusBadRequest, "Некорректный идентификатор чата.")
		return
	}
	if err := db.LinkTelegramChat(user.ID, req.ChatID); err != nil {
		log.Printf("LinkTelegram: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Не удалось привязать Telegram.")
		return
	}
	writeJSONSuccess(w, "Telegram привязан.", nil)
}

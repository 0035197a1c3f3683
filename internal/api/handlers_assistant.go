package api

import (
	"log"
	"net/http"
	"strings"

	"lumenr/internal/ai"
	"lumenr/internal/constants"
	"lumenr/internal/db"
	"lumenr/internal/models"
)

// AssistantChatRequest - структура запроса к ассистенту.
type AssistantChatRequest struct {
	Action  string                 `json:"action"` // lumen_chat или generate_image
	Message string                 `json:"message"`
	Files   []models.AssistantFile `json:"files,omitempty"`
}

// GetAssistantHistory возвращает историю чата с ассистентом.
func (d *ApiDependencies) GetAssistantHistory(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)
	history, err := db.GetAssistantHistory(user.ID)
	if err != nil {
		log.Printf("GetAssistantHistory: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Не удалось загрузить историю.")
		return
	}
	writeJSONSuccess(w, "", history)
}

// AssistantChat сохраняет реплику пользователя, вызывает сервис
// ассистента и сохраняет его ответ.
func (d *ApiDependencies) AssistantChat(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)
	if d.Assistant == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "Сервис ассистента не настроен.")
		return
	}
	var req AssistantChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	text := strings.TrimSpace(req.Message)
	if text == "" {
		writeJSONError(w, http.StatusBadRequest, "Сообщение пусто.")
		return
	}
	action := req.Action
	if action == "" {
		action = constants.ASSISTANT_ACTION_CHAT
	}
	if action != constants.ASSISTANT_ACTION_CHAT && action != constants.ASSISTANT_ACTION_IMAGE {
		writeJSONError(w, http.StatusBadRequest, "Неизвестное действие ассистента.")
		return
	}

	userTurn := models.AssistantMessage{
		UserID:  user.ID,
		Role:    constants.ASSISTANT_ROLE_USER,
		Content: text,
		Files:   req.Files,
	}
	userTurn, err := db.SaveAssistantMessage(userTurn)
	if err != nil {
		log.Printf("AssistantChat: ошибка сохранения реплики: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Не удалось сохранить сообщение.")
		return
	}

	var invokeReq ai.Request
	if action == constants.ASSISTANT_ACTION_IMAGE {
		invokeReq = ai.Request{Action: action, Prompt: text}
	} else {
		history, err := db.GetAssistantHistory(user.ID)
		if err != nil {
			log.Printf("AssistantChat: ошибка загрузки истории: %v", err)
			writeJSONError(w, http.StatusInternalServerError, "Не удалось загрузить историю.")
			return
		}
		invokeReq = ai.Request{Action: action, Messages: history}
	}

	resp, err := d.Assistant.Invoke(r.Context(), invokeReq)
	if err != nil {
		log.Printf("AssistantChat: %v", err)
		writeJSONError(w, http.StatusBadGateway, "Ассистент временно недоступен.")
		return
	}

	assistantTurn := models.AssistantMessage{
		UserID:  user.ID,
		Role:    constants.ASSISTANT_ROLE_ASSISTANT,
		Content: resp.Text(),
	}
	if resp.Image != "" {
		assistantTurn.Images = []string{resp.Image}
	}
	assistantTurn, err = db.SaveAssistantMessage(assistantTurn)
	if err != nil {
		log.Printf("AssistantChat: ошибка сохранения ответа: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Не удалось сохранить ответ.")
		return
	}

	writeJSONSuccess(w, "", assistantTurn)
}

// ClearAssistantHistory очищает историю чата с ассистентом.
func (d *ApiDependencies) ClearAssistantHistory(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r)
	if err := db.ClearAssistantHistory(user.ID); err != nil {
		log.Printf("ClearAssistantHistory: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Не удалось очистить историю.")
		return
	}
	writeJSONSuccess(w, "История очищена.", nil)
}

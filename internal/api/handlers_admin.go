package api

import (
	"log"
	"net/http"

	"lumenr/internal/db"
	"lumenr/internal/utils"
)

// RoleRequest - структура запроса на выдачу/снятие роли.
type RoleRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// GetAllRoles возвращает все назначения ролей в рабочем пространстве.
func (d *ApiDependencies) GetAllRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := db.GetAllUserRoles()
	if err != nil {
		log.Printf("GetAllRoles: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Не удалось загрузить роли.")
		return
	}
	writeJSONSuccess(w, "", roles)
}

// AddRole выдает пользователю роль. Повторная выдача той же роли
// сообщает об этом явно, а не падает.
func (d *ApiDependencies) AddRole(w http.ResponseWriter, r *http.Request) {
	admin, _ := currentUser(r)
	var req RoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !utils.IsValidRole(req.Role) {
		writeJSONError(w, http.StatusBadRequest, "Недопустимая роль.")
		return
	}
	if err := db.AddUserRole(req.UserID, req.Role, admin.ID); err != nil {
		if db.IsUniqueViolation(err) {
			writeJSONError(w, http.StatusConflict, "У пользователя уже есть эта роль.")
			return
		}
		log.Printf("AddRole: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Не удалось выдать роль.")
		return
	}
	d.publishUserUpdate(req.UserID)
	writeJSONSuccess(w, "Роль выдана.", nil)
}

// RemoveRole снимает с пользователя роль.
func (d *ApiDependencies) RemoveRole(w http.ResponseWriter, r *http.Request) {
	var req RoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := db.RemoveUserRole(req.UserID, req.Role); err != nil {
		log.Printf("RemoveRole: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Не удалось снять роль.")
		return
	}
	d.publishUserUpdate(req.UserID)
	writeJSONSuccess(w, "Роль снята.", nil)
}

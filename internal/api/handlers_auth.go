package api

import (
	"log"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"lumenr/internal/constants"
	"lumenr/internal/db"
	"lumenr/internal/models"
	"lumenr/internal/utils"
)

// RegisterRequest - структура запроса на регистрацию.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// LoginRequest - структура запроса на вход.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse - токен и профиль в ответах на вход/регистрацию.
type authResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Register создает аккаунт с ролью team_member по умолчанию.
func (d *ApiDependencies) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	email, err := utils.ValidateEmail(req.Email)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Некорректный адрес электронной почты.")
		return
	}
	if len(req.Password) < 8 {
		writeJSONError(w, http.StatusBadRequest, "Пароль должен быть не короче 8 символов.")
		return
	}
	firstName := strings.TrimSpace(req.FirstName)
	if firstName == "" {
		writeJSONError(w, http.StatusBadRequest, "Имя обязательно.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Register: ошибка хеширования пароля: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера.")
		return
	}

	user, err := db.CreateUser(email, string(hash), firstName, strings.TrimSpace(req.LastName), constants.ROLE_TEAM_MEMBER)
	if err != nil {
		if db.IsUniqueViolation(err) {
			writeJSONError(w, http.StatusConflict, "Пользователь с таким адресом уже зарегистрирован.")
			return
		}
		log.Printf("Register: ошибка создания пользователя: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Не удалось создать пользователя.")
		return
	}
	user.Role = constants.ROLE_TEAM_MEMBER

	token, err := issueToken(user, d.Config.JWTSecret)
	if err != nil {
		log.Printf("Register: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Не удалось выпустить токен.")
		return
	}

	_ = db.AddHistoryLog(user.ID, constants.HISTORY_CATEGORY_GENERAL, "Регистрация аккаунта")
	log.Printf("Зарегистрирован новый пользователь %s (%s).", user.ID, user.Email)
	writeJSONSuccess(w, "Регистрация выполнена.", authResponse{Token: token, User: user})
}

// Login проверяет учетные данные и переводит пользователя в статус Available.
func (d *ApiDependencies) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	email, err := utils.ValidateEmail(req.Email)
	if err != nil {
		writeJSONError(w, http.StatusUnauthorized, "Неверный адрес или пароль.")
		return
	}

	user, passwordHash, err := db.GetUserByEmail(email)
	if err != nil {
		writeJSONError(w, http.StatusUnauthorized, "Неверный адрес или пароль.")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)); err != nil {
		writeJSONError(w, http.StatusUnauthorized, "Неверный адрес или пароль.")
		return
	}
	user.Role = db.GetPrimaryRole(user.ID)

	token, err := issueToken(user, d.Config.JWTSecret)
	if err != nil {
		log.Printf("Login: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Не удалось выпустить токен.")
		return
	}

	// Вход переводит пользователя в Available.
	d.Sessions.HandleConnect(user.ID)
	user.Status = constants.STATUS_AVAILABLE

	writeJSONSuccess(w, "Вход выполнен.", authResponse{Token: token, User: user})
}

// Logout переводит пользователя в статус Away.
func (d *ApiDependencies) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "Требуется авторизация.")
		return
	}
	d.Sessions.HandleDisconnect(user.ID)
	d.Stores.Release(user.ID)
	writeJSONSuccess(w, "Выход выполнен.", nil)
}

// GetProfile возвращает профиль текущего пользователя.
func (d *ApiDependencies) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "Требуется авторизация.")
		return
	}
	writeJSONSuccess(w, "", user)
}

// UpdateProfileRequest - структура запроса на обновление профиля.
type UpdateProfileRequest struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Department string `json:"department"`
}

// UpdateProfile обновляет имя и отдел текущего пользователя.
func (d *ApiDependencies) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "Требуется авторизация.")
		return
	}
	var req UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	firstName := strings.TrimSpace(req.FirstName)
	if firstName == "" {
		writeJSONError(w, http.StatusBadRequest, "Имя обязательно.")
		return
	}

	department := models.NullString{}
	if dep := strings.TrimSpace(req.Department); dep != "" {
		department = models.NewNullString(dep)
	}
	if err := db.UpdateUserProfile(user.ID, firstName, strings.TrimSpace(req.LastName), department); err != nil {
		log.Printf("UpdateProfile: ошибка обновления профиля %s: %v", user.ID, err)
		writeJSONError(w, http.StatusInternalServerError, "Не удалось обновить профиль.")
		return
	}
	d.publishUserUpdate(user.ID)
	writeJSONSuccess(w, "Профиль обновлен.", nil)
}

// UpdateStatusRequest - структура запроса на смену статуса присутствия.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus устанавливает статус присутствия вручную (например, Busy).
func (d *ApiDependencies) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "Требуется авторизация.")
		return
	}
	var req UpdateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := d.Sessions.SetStatus(user.ID, req.Status); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Недопустимый статус.")
		return
	}
	writeJSONSuccess(w, "Статус обновлен.", nil)
}

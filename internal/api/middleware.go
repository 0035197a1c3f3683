package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"lumenr/internal/db"
	"lumenr/internal/models"
	"lumenr/internal/utils"
)

// UserContextKey - ключ для сохранения данных пользователя в контексте запроса.
var UserContextKey = &contextKey{"User"}

type contextKey struct {
	name string
}

// AuthMiddleware проверяет JWT из заголовка Authorization (Bearer) или из
// query-параметра token (для websocket, где заголовки недоступны браузеру).
func AuthMiddleware(secretKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := ""
			if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
				tokenString = strings.TrimPrefix(authHeader, "Bearer ")
			} else {
				tokenString = r.URL.Query().Get("token")
			}
			if tokenString == "" {
				writeJSONError(w, http.StatusUnauthorized, "Требуется авторизация.")
				return
			}

			userID, err := parseToken(tokenString, secretKey)
			if err != nil {
				log.Printf("AuthMiddleware: недействительный токен: %v", err)
				writeJSONError(w, http.StatusUnauthorized, "Недействительный токен.")
				return
			}

			// Получаем полную информацию о пользователе из нашей БД.
			user, err := db.GetUserByID(userID)
			if err != nil {
				log.Printf("AuthMiddleware: пользователь %s не найден: %v", userID, err)
				writeJSONError(w, http.StatusUnauthorized, "Пользователь не найден.")
				return
			}
			user.Role = db.GetPrimaryRole(user.ID)

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RoleMiddleware проверяет, не ниже ли роль пользователя требуемой.
func RoleMiddleware(requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := currentUser(r)
			if !ok {
				writeJSONError(w, http.StatusForbidden, "Данные пользователя не найдены.")
				return
			}
			if !utils.IsRoleOrHigher(user.Role, requiredRole) {
				writeJSONError(w, http.StatusForbidden, "Недостаточно прав.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// parseToken проверяет подпись и срок действия JWT и возвращает id пользователя.
func parseToken(tokenString, secretKey string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", t.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("недействительные клеймы токена")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("токен не содержит идентификатора пользователя")
	}
	return sub, nil
}

// tokenLifetime - срок действия выпускаемых JWT.
const tokenLifetime = 7 * 24 * time.Hour

// issueToken выпускает JWT для пользователя.
func issueToken(user models.User, secretKey string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"exp":   now.Add(tokenLifetime).Unix(),
		"iat":   now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", fmt.Errorf("ошибка подписи токена: %w", err)
	}
	return signed, nil
}

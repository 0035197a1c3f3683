package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// Запрос без пользователя в контексте должен получать 401, а не 500:
// отсутствие авторизации - не отказ сервиса.
func TestChatHandlersWithoutUserAnswer401(t *testing.T) {
	d := &ApiDependencies{}

	handlers := map[string]http.HandlerFunc{
		"directory":     d.GetDirectory,
		"conversations": d.GetConversations,
		"draft":         d.GetDraft,
	}
	for name, h := range handlers {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/"+name, nil)

			h(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

package rest

import (
	"context"
	"net/http"
	"strconv"
)

// Кастомный тип для ключа контекста
type contextKey string

const userIDKey = contextKey("userID")

// AuthMiddleware извлекает ID пользователя Telegram из заголовка
// X-Telegram-User-Id. Заголовок проставляет хостящая мини-апп обвязка
// после проверки initData, мы доверяем ей.
// ID обязан быть числом: он дальше используется как имя каталога в
// staging-хранилище и хранилище черновиков.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-Telegram-User-Id")
		if userID == "" {
			// Либо проблема конфигурации, либо прямой доступ в обход обвязки
			WriteJSONError(w, http.StatusUnauthorized, "Authentication error: Telegram user ID header is missing")
			return
		}

		if _, err := strconv.ParseUint(userID, 10, 64); err != nil {
			WriteJSONError(w, http.StatusUnauthorized, "Authentication error: Invalid Telegram user ID format")
			return
		}

		// Кладем userID в контекст запроса, чтобы хендлеры могли его использовать
		ctx := context.WithValue(r.Context(), userIDKey, userID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userIDFromRequest достает ID пользователя, положенный AuthMiddleware.
func userIDFromRequest(r *http.Request) (string, bool) {
	userID, ok := r.Context().Value(userIDKey).(string)
	return userID, ok && userID != ""
}

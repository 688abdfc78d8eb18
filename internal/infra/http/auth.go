package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"astroguru/internal/domain"
)

type contextKey string

const userContextKey contextKey = "current_user"

// BearerAuthMiddleware проверяет JWT из заголовка Authorization и кладёт
// пользователя в контекст запроса. Ядро дальше доверяет user.ZodiacSign
// как есть и никогда его не пересчитывает.
func BearerAuthMiddleware(tokens *TokenManager, users domain.UserRepo) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw := strings.TrimPrefix(header, "Bearer ")
			if raw == "" || raw == header {
				unauthorized(w, "authorization token required")
				return
			}
			userID, err := tokens.Parse(raw)
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}
			user, err := users.GetUserByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					unauthorized(w, "invalid or expired token")
					return
				}
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext возвращает аутентифицированного пользователя запроса.
func UserFromContext(ctx context.Context) (domain.User, bool) {
	user, ok := ctx.Value(userContextKey).(domain.User)
	return user, ok
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": msg})
}

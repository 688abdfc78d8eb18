package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"astroguru/internal/infra/metrics"
)

// RateLimitMiddleware ограничивает число запросов фиксированным окном на
// пользователя (до аутентификации — на IP). Счётчик живёт в Redis, поэтому
// лимит общий для всех экземпляров API.
func RateLimitMiddleware(client *redis.Client, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if client == nil || limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			key := "rl:" + limiterKey(r)
			count, err := client.Incr(r.Context(), key).Result()
			if err != nil {
				// Недоступный Redis не должен ронять чтение гороскопов.
				next.ServeHTTP(w, r)
				return
			}
			if count == 1 {
				_ = client.Expire(r.Context(), key, window).Err()
			}
			if count > int64(limit) {
				metrics.IncRateLimited()
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"success": false,
					"message": "Too many requests, please try again later",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func limiterKey(r *http.Request) string {
	if user, ok := UserFromContext(r.Context()); ok {
		return fmt.Sprintf("user:%d", user.ID)
	}
	return "ip:" + r.RemoteAddr
}

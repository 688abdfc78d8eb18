package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"astroguru/internal/adapters/content"
	"astroguru/internal/adapters/repo"
	"astroguru/internal/domain"
	"astroguru/internal/infra/config"
	"astroguru/internal/infra/db"
	httpinfra "astroguru/internal/infra/http"
	applog "astroguru/internal/infra/log"
	"astroguru/internal/infra/metrics"
	authusecase "astroguru/internal/usecase/auth"
	horoscopeusecase "astroguru/internal/usecase/horoscope"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: нет подключения к БД")
	}
	defer pool.Close()

	repoAdapter := repo.NewPostgres(pool)
	if err := repoAdapter.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("api: не удалось применить схему")
	}

	if cfg.JWT.Secret == "" {
		logger.Fatal().Msg("api: не задан JWT_SECRET")
	}
	tokens := httpinfra.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL)

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
	}

	authService := authusecase.NewService(repoAdapter, nil)
	horoscopeService := horoscopeusecase.NewService(repoAdapter, content.NewPool(), nil)

	server := httpinfra.NewServer(logger)
	r := server.Router

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", func(w http.ResponseWriter, r *http.Request) {
			defer r.Body.Close()
			var in authusecase.SignupInput
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				writeMessage(w, http.StatusBadRequest, "invalid request body")
				return
			}
			user, err := authService.SignUp(r.Context(), in)
			if err != nil {
				var verr *authusecase.ValidationError
				switch {
				case errors.As(err, &verr):
					writeValidationErrors(w, verr)
				case errors.Is(err, domain.ErrEmailTaken):
					writeMessage(w, http.StatusConflict, "User already exists with this email")
				default:
					logger.Error().Err(err).Msg("api: регистрация")
					writeMessage(w, http.StatusInternalServerError, "Internal server error")
				}
				return
			}
			token, err := tokens.Issue(user.ID)
			if err != nil {
				logger.Error().Err(err).Msg("api: выпуск токена")
				writeMessage(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			writeJSON(w, http.StatusCreated, map[string]any{
				"success": true,
				"message": "User created successfully",
				"data":    map[string]any{"token": token, "user": userJSON(user)},
			})
		})

		r.Post("/login", func(w http.ResponseWriter, r *http.Request) {
			defer r.Body.Close()
			var in struct {
				Email    string `json:"email"`
				Password string `json:"password"`
			}
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				writeMessage(w, http.StatusBadRequest, "invalid request body")
				return
			}
			user, err := authService.Login(r.Context(), in.Email, in.Password)
			if err != nil {
				if errors.Is(err, domain.ErrInvalidCredentials) {
					writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
					return
				}
				logger.Error().Err(err).Msg("api: вход")
				writeMessage(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			token, err := tokens.Issue(user.ID)
			if err != nil {
				logger.Error().Err(err).Msg("api: выпуск токена")
				writeMessage(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"message": "Login successful",
				"data":    map[string]any{"token": token, "user": userJSON(user)},
			})
		})

		r.Group(func(protected chi.Router) {
			protected.Use(httpinfra.BearerAuthMiddleware(tokens, repoAdapter))
			protected.Get("/profile", func(w http.ResponseWriter, r *http.Request) {
				user, _ := httpinfra.UserFromContext(r.Context())
				writeJSON(w, http.StatusOK, map[string]any{
					"success": true,
					"data":    map[string]any{"user": userJSON(user)},
				})
			})
		})
	})

	r.Route("/api/horoscope", func(r chi.Router) {
		r.Use(httpinfra.BearerAuthMiddleware(tokens, repoAdapter))
		r.Use(httpinfra.RateLimitMiddleware(redisClient, cfg.Limits.RateRequests, cfg.Limits.RateWindow))

		r.Get("/today", func(w http.ResponseWriter, r *http.Request) {
			metrics.IncRequest("today")
			user, _ := httpinfra.UserFromContext(r.Context())
			h, err := horoscopeService.GetToday(r.Context(), user)
			if err != nil {
				logger.Error().Err(err).Int64("user", user.ID).Msg("api: гороскоп на сегодня")
				writeMessage(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			writeHoroscope(w, user, h)
		})

		r.Get("/history", func(w http.ResponseWriter, r *http.Request) {
			metrics.IncRequest("history")
			user, _ := httpinfra.UserFromContext(r.Context())
			window, err := horoscopeService.GetWindow(r.Context(), user, cfg.Limits.HistoryDays)
			if err != nil {
				logger.Error().Err(err).Int64("user", user.ID).Msg("api: история гороскопов")
				writeMessage(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			items := make([]map[string]any, 0, len(window))
			for _, h := range window {
				items = append(items, horoscopeJSON(h))
			}
			info, _ := domain.SignInfo(user.ZodiacSign)
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"data": map[string]any{
					"horoscopes": items,
					"zodiacInfo": info,
					"totalCount": len(items),
				},
			})
		})

		r.Get("/date/{date}", func(w http.ResponseWriter, r *http.Request) {
			metrics.IncRequest("date")
			user, _ := httpinfra.UserFromContext(r.Context())
			day, err := time.Parse("2006-01-02", chi.URLParam(r, "date"))
			if err != nil {
				writeMessage(w, http.StatusBadRequest, "Invalid date format")
				return
			}
			h, err := horoscopeService.GetForDay(r.Context(), user, day)
			if err != nil {
				logger.Error().Err(err).Int64("user", user.ID).Msg("api: гороскоп по дате")
				writeMessage(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			writeHoroscope(w, user, h)
		})
	})

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), ":9090")

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: r}
	go func() {
		logger.Info().Int("port", cfg.Port).Msg("api: старт")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("api: сервер остановлен")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("api: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func writeHoroscope(w http.ResponseWriter, user domain.User, h domain.Horoscope) {
	info, _ := domain.SignInfo(user.ZodiacSign)
	payload := horoscopeJSON(h)
	payload["zodiacInfo"] = info
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    map[string]any{"horoscope": payload},
	})
}

func horoscopeJSON(h domain.Horoscope) map[string]any {
	return map[string]any{
		"id":         h.ID,
		"date":       h.Date.Format("2006-01-02"),
		"content":    h.Content,
		"zodiacSign": h.ZodiacSign,
		"category":   h.Category,
	}
}

func userJSON(user domain.User) map[string]any {
	return map[string]any{
		"id":         user.ID,
		"name":       user.Name,
		"email":      user.Email,
		"birthdate":  user.Birthdate.Format("2006-01-02"),
		"zodiacSign": user.ZodiacSign,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "message": msg})
}

func writeValidationErrors(w http.ResponseWriter, verr *authusecase.ValidationError) {
	errs := make([]map[string]string, 0, len(verr.Messages))
	for _, msg := range verr.Messages {
		errs = append(errs, map[string]string{"msg": msg})
	}
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"success": false,
		"message": "Validation failed",
		"errors":  errs,
	})
}

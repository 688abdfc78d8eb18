package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"astroguru/internal/adapters/content"
	"astroguru/internal/adapters/repo"
	"astroguru/internal/domain"
	"astroguru/internal/infra/config"
	"astroguru/internal/infra/db"
	applog "astroguru/internal/infra/log"
	"astroguru/internal/infra/metrics"
	"astroguru/internal/infra/queue"
	horoscopeusecase "astroguru/internal/usecase/horoscope"
)

// Воркер предгенерации: читает задачи из очереди и прогоняет их через
// идемпотентный get-or-create. Дубликаты задач и гонки с API безвредны —
// победителя определяет уникальный индекс в БД.
func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), ":9090")

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("generator: нет подключения к БД")
	}
	defer pool.Close()

	repoAdapter := repo.NewPostgres(pool)
	horoscopeService := horoscopeusecase.NewService(repoAdapter, content.NewPool(), nil)

	var jobs domain.GenerateQueue
	switch {
	case cfg.RabbitURL != "":
		rabbit, err := queue.NewRabbitGenerateQueue(cfg.RabbitURL, cfg.Queues.Generate)
		if err != nil {
			logger.Fatal().Err(err).Msg("generator: не удалось инициализировать очередь RabbitMQ")
		}
		defer rabbit.Close()
		jobs = rabbit
	case cfg.RedisAddr != "":
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		jobs = queue.NewRedisGenerateQueue(redisClient, cfg.Queues.Generate)
	default:
		logger.Fatal().Msg("generator: не указан ни RABBITMQ_URL, ни REDIS_ADDR")
	}

	worker := &jobWorker{
		log:     logger,
		jobs:    jobs,
		users:   repoAdapter,
		service: horoscopeService,
	}

	logger.Info().Msg("generator: запуск обработки очереди")
	worker.Run(ctx)
	logger.Info().Msg("generator: остановлен")
}

type jobWorker struct {
	log     zerolog.Logger
	jobs    domain.GenerateQueue
	users   domain.UserRepo
	service *horoscopeusecase.Service
}

// Run обрабатывает задачи до отмены контекста.
func (w *jobWorker) Run(ctx context.Context) {
	for {
		job, err := w.jobs.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			w.log.Error().Err(err).Msg("generator: ошибка чтения очереди")
			continue
		}
		w.handle(ctx, job)
	}
}

func (w *jobWorker) handle(ctx context.Context, job domain.GenerateJob) {
	user, err := w.users.GetUserByID(ctx, job.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Пользователь удалён после постановки задачи.
			w.log.Warn().Str("job", job.JobID).Int64("user", job.UserID).Msg("generator: пользователь не найден")
			return
		}
		w.log.Error().Err(err).Str("job", job.JobID).Msg("generator: загрузка пользователя")
		return
	}

	if _, err := w.service.GetForDay(ctx, user, job.Date); err != nil {
		w.log.Error().Err(err).Str("job", job.JobID).Int64("user", user.ID).Msg("generator: не удалось создать гороскоп")
		return
	}
	w.log.Debug().Str("job", job.JobID).Int64("user", user.ID).Msg("generator: гороскоп готов")
}

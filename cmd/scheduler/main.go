package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"astroguru/internal/adapters/repo"
	"astroguru/internal/domain"
	"astroguru/internal/infra/cache"
	"astroguru/internal/infra/config"
	"astroguru/internal/infra/db"
	applog "astroguru/internal/infra/log"
	"astroguru/internal/infra/queue"
)

// Планировщик прогрева: раз в период ставит каждому пользователю задачу
// предгенерации гороскопа на сегодня. Генерация идёт через тот же
// идемпотентный путь get-or-create, поэтому повторная задача безвредна.
func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: нет подключения к БД")
	}
	defer pool.Close()

	repoAdapter := repo.NewPostgres(pool)

	if cfg.RedisAddr == "" {
		logger.Fatal().Msg("scheduler: не указан адрес Redis (REDIS_ADDR)")
	}
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	onceCache := cache.NewRedis(redisClient)

	var jobs domain.GenerateQueue
	if cfg.RabbitURL != "" {
		rabbit, err := queue.NewRabbitGenerateQueue(cfg.RabbitURL, cfg.Queues.Generate)
		if err != nil {
			logger.Fatal().Err(err).Msg("scheduler: не удалось инициализировать очередь RabbitMQ")
		}
		defer rabbit.Close()
		jobs = rabbit
	} else {
		jobs = queue.NewRedisGenerateQueue(redisClient, cfg.Queues.Generate)
	}

	ticker := time.NewTicker(cfg.Limits.WarmupPeriod)
	defer ticker.Stop()

	logger.Info().Dur("period", cfg.Limits.WarmupPeriod).Msg("scheduler: старт")
	for {
		enqueueWarmupJobs(ctx, logger, repoAdapter, onceCache, jobs)
		select {
		case <-ctx.Done():
			logger.Info().Msg("scheduler: остановка")
			return
		case <-ticker.C:
		}
	}
}

func enqueueWarmupJobs(ctx context.Context, logger zerolog.Logger, users domain.UserRepo, onceCache domain.Cache, jobs domain.GenerateQueue) {
	today := domain.NormalizeDay(time.Now())

	list, err := users.ListUsers(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("scheduler: ошибка выборки пользователей")
		return
	}

	for _, user := range list {
		key := fmt.Sprintf("warmup:%s:%d", today.Format("2006-01-02"), user.ID)
		userID := user.ID
		err := onceCache.Once(key, 26*time.Hour, func() error {
			return jobs.Enqueue(ctx, domain.GenerateJob{
				JobID:  uuid.NewString(),
				UserID: userID,
				Date:   today,
			})
		})
		if err != nil {
			logger.Error().Err(err).Int64("user", userID).Msg("scheduler: не удалось поставить задачу")
		}
	}
}

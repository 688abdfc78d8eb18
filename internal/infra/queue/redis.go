package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"astroguru/internal/domain"
)

// RedisGenerateQueue реализует очередь задач на базе Redis lists.
// Запасной вариант для окружений без RabbitMQ.
type RedisGenerateQueue struct {
	client *redis.Client
	key    string
}

// NewRedisGenerateQueue создаёт очередь по указанному ключу.
func NewRedisGenerateQueue(client *redis.Client, key string) *RedisGenerateQueue {
	return &RedisGenerateQueue{client: client, key: key}
}

// Enqueue публикует задачу в очередь.
func (q *RedisGenerateQueue) Enqueue(ctx context.Context, job domain.GenerateJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("push job: %w", err)
	}
	return nil
}

// Pop блокирующе читает задачу из очереди.
func (q *RedisGenerateQueue) Pop(ctx context.Context) (domain.GenerateJob, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.GenerateJob{}, err
		}

		res, err := q.client.BRPop(ctx, time.Second, q.key).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctx.Err() != nil {
					return domain.GenerateJob{}, ctx.Err()
				}
				continue
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			return domain.GenerateJob{}, err
		}
		if len(res) != 2 {
			return domain.GenerateJob{}, errors.New("redis queue: unexpected response")
		}
		var job domain.GenerateJob
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			return domain.GenerateJob{}, fmt.Errorf("decode job: %w", err)
		}
		return job, nil
	}
}

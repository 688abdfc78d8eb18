package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"astroguru/internal/domain"
	"astroguru/internal/infra/metrics"
)

// RabbitGenerateQueue реализует очередь задач предгенерации через AMQP.
type RabbitGenerateQueue struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	queue      string
	deliveries <-chan amqp.Delivery
}

// NewRabbitGenerateQueue подключается к RabbitMQ и объявляет долговечную очередь.
func NewRabbitGenerateQueue(amqpURL, queue string) (*RabbitGenerateQueue, error) {
	if amqpURL == "" {
		return nil, errors.New("amqp url is empty")
	}
	if queue == "" {
		return nil, errors.New("queue name is empty")
	}
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	return &RabbitGenerateQueue{conn: conn, ch: ch, queue: queue}, nil
}

// Enqueue публикует задачу в очередь.
func (q *RabbitGenerateQueue) Enqueue(ctx context.Context, job domain.GenerateJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	start := time.Now()
	err = q.ch.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         payload,
	})
	metrics.ObserveNetworkRequest("rabbitmq", "publish", q.queue, start, err)
	if err != nil {
		return fmt.Errorf("publish job: %w", err)
	}
	return nil
}

// Pop блокирующе читает задачу из очереди.
func (q *RabbitGenerateQueue) Pop(ctx context.Context) (domain.GenerateJob, error) {
	if q.deliveries == nil {
		deliveries, err := q.ch.Consume(q.queue, "", true, false, false, false, nil)
		if err != nil {
			return domain.GenerateJob{}, fmt.Errorf("consume queue: %w", err)
		}
		q.deliveries = deliveries
	}

	select {
	case <-ctx.Done():
		return domain.GenerateJob{}, ctx.Err()
	case delivery, ok := <-q.deliveries:
		if !ok {
			return domain.GenerateJob{}, errors.New("rabbitmq queue: канал доставки закрыт")
		}
		var job domain.GenerateJob
		if err := json.Unmarshal(delivery.Body, &job); err != nil {
			return domain.GenerateJob{}, fmt.Errorf("decode job: %w", err)
		}
		return job, nil
	}
}

// Close закрывает канал и соединение.
func (q *RabbitGenerateQueue) Close() error {
	if err := q.ch.Close(); err != nil {
		_ = q.conn.Close()
		return err
	}
	return q.conn.Close()
}

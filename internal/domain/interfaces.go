package domain

import (
	"context"
	"time"
)

// UserRepo управляет пользователями.
type UserRepo interface {
	CreateUser(ctx context.Context, user User) (User, error)
	GetUserByID(ctx context.Context, id int64) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// HoroscopeRepo — хранилище гороскопов с уникальным ключом (user_id, date).
type HoroscopeRepo interface {
	FindByUserAndDate(ctx context.Context, userID int64, day time.Time) (Horoscope, error)
	// CreateHoroscope возвращает ErrDuplicateHoroscope, если запись за день уже есть.
	CreateHoroscope(ctx context.Context, h Horoscope) (Horoscope, error)
	// FindRange возвращает записи с date >= from, отсортированные по дате по убыванию.
	FindRange(ctx context.Context, userID int64, from time.Time) ([]Horoscope, error)
	// BulkCreate вставляет пачку записей; ключи внутри пачки обязан различать вызывающий.
	BulkCreate(ctx context.Context, hs []Horoscope) error
}

// ContentPool выдаёт текст гороскопа для знака.
type ContentPool interface {
	Pick(sign ZodiacSign) string
}

// GenerateQueue — очередь задач предгенерации.
type GenerateQueue interface {
	Enqueue(ctx context.Context, job GenerateJob) error
	Pop(ctx context.Context) (GenerateJob, error)
}

// Cache используется для простых TTL-хранилищ.
type Cache interface {
	Once(key string, ttl time.Duration, fn func() error) error
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
}

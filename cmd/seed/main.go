package main

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"astroguru/internal/adapters/content"
	"astroguru/internal/adapters/repo"
	"astroguru/internal/domain"
	"astroguru/internal/infra/config"
	"astroguru/internal/infra/db"
	applog "astroguru/internal/infra/log"
	horoscopeusecase "astroguru/internal/usecase/horoscope"
)

type sampleUser struct {
	name      string
	email     string
	password  string
	birthdate time.Time
}

var sampleUsers = []sampleUser{
	{name: "John Doe", email: "john@example.com", password: "Password123", birthdate: time.Date(1990, time.May, 15, 0, 0, 0, 0, time.UTC)},
	{name: "Jane Smith", email: "jane@example.com", password: "Password123", birthdate: time.Date(1985, time.December, 3, 0, 0, 0, 0, time.UTC)},
	{name: "Mike Johnson", email: "mike@example.com", password: "Password123", birthdate: time.Date(1992, time.August, 22, 0, 0, 0, 0, time.UTC)},
}

// Административный сброс данных: пересоздаёт схему, удаляет всё и наполняет
// базу тестовыми пользователями с историей гороскопов за неделю.
func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed: нет подключения к БД")
	}
	defer pool.Close()

	repoAdapter := repo.NewPostgres(pool)
	if err := repoAdapter.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("seed: не удалось применить схему")
	}
	if err := repoAdapter.ResetData(ctx); err != nil {
		logger.Fatal().Err(err).Msg("seed: не удалось очистить данные")
	}
	logger.Info().Msg("seed: данные очищены")

	horoscopeService := horoscopeusecase.NewService(repoAdapter, content.NewPool(), nil)

	for _, sample := range sampleUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(sample.password), 12)
		if err != nil {
			logger.Fatal().Err(err).Msg("seed: хэширование пароля")
		}
		user, err := repoAdapter.CreateUser(ctx, domain.User{
			Name:         sample.name,
			Email:        sample.email,
			PasswordHash: string(hash),
			Birthdate:    sample.birthdate,
			ZodiacSign:   domain.ClassifySign(sample.birthdate),
		})
		if err != nil {
			logger.Fatal().Err(err).Str("email", sample.email).Msg("seed: создание пользователя")
		}
		logger.Info().Str("name", user.Name).Str("sign", string(user.ZodiacSign)).Msg("seed: пользователь создан")

		window, err := horoscopeService.GetWindow(ctx, user, horoscopeusecase.DefaultWindowDays)
		if err != nil {
			logger.Fatal().Err(err).Str("email", sample.email).Msg("seed: дозаполнение истории")
		}
		logger.Info().Str("name", user.Name).Int("days", len(window)).Msg("seed: история создана")
	}

	logger.Info().Msg("seed: готово")
	for _, sample := range sampleUsers {
		logger.Info().Str("email", sample.email).Str("password", sample.password).Msg("seed: тестовые учётные данные")
	}
}

package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"astroguru/internal/domain"
	"astroguru/internal/infra/metrics"
)

// Postgres реализует репозитории на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.UserRepo      = (*Postgres)(nil)
	_ domain.HoroscopeRepo = (*Postgres)(nil)
)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func (p *Postgres) connCtxWithParent(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return p.connCtx()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// Migrate создаёт таблицы и индексы. Уникальный индекс (user_id, date) —
// носитель инварианта "один гороскоп на пользователя в день"; вторичный
// индекс (zodiac_sign, date) — часть контракта хранилища для агрегатов.
func (p *Postgres) Migrate(ctx context.Context) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    birthdate DATE NOT NULL,
    zodiac_sign TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (email)`,
		`CREATE TABLE IF NOT EXISTS horoscopes (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    zodiac_sign TEXT NOT NULL,
    date DATE NOT NULL,
    content TEXT NOT NULL,
    category TEXT NOT NULL DEFAULT 'general',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS horoscopes_user_date_key ON horoscopes (user_id, date)`,
		`CREATE INDEX IF NOT EXISTS horoscopes_sign_date_idx ON horoscopes (zodiac_sign, date)`,
	}

	for _, stmt := range statements {
		start := time.Now()
		_, err := p.pool.Exec(ctx, stmt)
		metrics.ObserveNetworkRequest("postgres", "migrate", "schema", start, err)
		if err != nil {
			return fmt.Errorf("миграция схемы: %w", err)
		}
	}
	return nil
}

// ResetData удаляет все данные. Используется только сидированием и тестами.
func (p *Postgres) ResetData(ctx context.Context) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `TRUNCATE horoscopes, users RESTART IDENTITY CASCADE`)
	metrics.ObserveNetworkRequest("postgres", "reset_data", "users", start, err)
	return err
}

// CreateUser реализует domain.UserRepo.
func (p *Postgres) CreateUser(ctx context.Context, user domain.User) (domain.User, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	email := strings.ToLower(strings.TrimSpace(user.Email))

	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO users (name, email, password_hash, birthdate, zodiac_sign)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, email, created_at, updated_at
`, user.Name, email, user.PasswordHash, user.Birthdate, string(user.ZodiacSign)).
		Scan(&user.ID, &user.Email, &user.CreatedAt, &user.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "users_insert", "users", start, err)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.User{}, domain.ErrEmailTaken
		}
		return domain.User{}, err
	}
	return user, nil
}

// GetUserByID возвращает пользователя по ID.
func (p *Postgres) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var user domain.User
	var sign string
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT id, name, email, password_hash, birthdate, zodiac_sign, created_at, updated_at
FROM users WHERE id=$1
`, id).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Birthdate, &sign, &user.CreatedAt, &user.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "users_get_by_id", "users", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	user.ZodiacSign = domain.ZodiacSign(sign)
	return user, nil
}

// GetUserByEmail возвращает пользователя по email.
func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var user domain.User
	var sign string
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT id, name, email, password_hash, birthdate, zodiac_sign, created_at, updated_at
FROM users WHERE email=$1
`, strings.ToLower(strings.TrimSpace(email))).
		Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Birthdate, &sign, &user.CreatedAt, &user.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "users_get_by_email", "users", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	user.ZodiacSign = domain.ZodiacSign(sign)
	return user, nil
}

// ListUsers возвращает всех пользователей. Используется планировщиком прогрева.
func (p *Postgres) ListUsers(ctx context.Context) ([]domain.User, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, name, email, password_hash, birthdate, zodiac_sign, created_at, updated_at
FROM users ORDER BY id
`)
	metrics.ObserveNetworkRequest("postgres", "users_list", "users", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		var sign string
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Birthdate, &sign, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		user.ZodiacSign = domain.ZodiacSign(sign)
		users = append(users, user)
	}
	return users, rows.Err()
}

// FindByUserAndDate возвращает гороскоп за календарный день.
func (p *Postgres) FindByUserAndDate(ctx context.Context, userID int64, day time.Time) (domain.Horoscope, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var h domain.Horoscope
	var sign string
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT id, user_id, zodiac_sign, date, content, category, created_at
FROM horoscopes WHERE user_id=$1 AND date=$2
`, userID, domain.NormalizeDay(day)).
		Scan(&h.ID, &h.UserID, &sign, &h.Date, &h.Content, &h.Category, &h.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "horoscopes_get", "horoscopes", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Horoscope{}, domain.ErrHoroscopeNotFound
	}
	if err != nil {
		return domain.Horoscope{}, err
	}
	h.ZodiacSign = domain.ZodiacSign(sign)
	h.Date = domain.NormalizeDay(h.Date)
	return h, nil
}

// CreateHoroscope вставляет запись за день. Нарушение уникальности (user_id, date)
// превращается в domain.ErrDuplicateHoroscope: гонку разбирает вызывающий.
func (p *Postgres) CreateHoroscope(ctx context.Context, h domain.Horoscope) (domain.Horoscope, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	h.Date = domain.NormalizeDay(h.Date)
	if h.Category == "" {
		h.Category = domain.CategoryGeneral
	}

	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO horoscopes (user_id, zodiac_sign, date, content, category)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at
`, h.UserID, string(h.ZodiacSign), h.Date, h.Content, h.Category).Scan(&h.ID, &h.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "horoscopes_insert", "horoscopes", start, err)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.Horoscope{}, domain.ErrDuplicateHoroscope
		}
		return domain.Horoscope{}, err
	}
	return h, nil
}

// FindRange возвращает гороскопы с date >= from, новые первыми.
func (p *Postgres) FindRange(ctx context.Context, userID int64, from time.Time) ([]domain.Horoscope, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, user_id, zodiac_sign, date, content, category, created_at
FROM horoscopes WHERE user_id=$1 AND date >= $2
ORDER BY date DESC
`, userID, domain.NormalizeDay(from))
	metrics.ObserveNetworkRequest("postgres", "horoscopes_range", "horoscopes", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hs []domain.Horoscope
	for rows.Next() {
		var h domain.Horoscope
		var sign string
		if err := rows.Scan(&h.ID, &h.UserID, &sign, &h.Date, &h.Content, &h.Category, &h.CreatedAt); err != nil {
			return nil, err
		}
		h.ZodiacSign = domain.ZodiacSign(sign)
		h.Date = domain.NormalizeDay(h.Date)
		hs = append(hs, h)
	}
	return hs, rows.Err()
}

// BulkCreate вставляет пачку записей в одной транзакции. Дни, занятые
// параллельным одиночным запросом, пропускаются через ON CONFLICT DO NOTHING:
// дозаполнение не вправе ни упасть на такой гонке, ни перезаписать победителя.
func (p *Postgres) BulkCreate(ctx context.Context, hs []domain.Horoscope) error {
	if len(hs) == 0 {
		return nil
	}

	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	metrics.ObserveNetworkRequest("postgres", "begin_tx", "horoscopes", start, err)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, h := range hs {
		category := h.Category
		if category == "" {
			category = domain.CategoryGeneral
		}
		start = time.Now()
		_, err = tx.Exec(ctx, `
INSERT INTO horoscopes (user_id, zodiac_sign, date, content, category)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id, date) DO NOTHING
`, h.UserID, string(h.ZodiacSign), domain.NormalizeDay(h.Date), h.Content, category)
		metrics.ObserveNetworkRequest("postgres", "horoscopes_bulk_insert", "horoscopes", start, err)
		if err != nil {
			return err
		}
	}

	start = time.Now()
	err = tx.Commit(ctx)
	metrics.ObserveNetworkRequest("postgres", "commit", "horoscopes", start, err)
	return err
}

package horoscope

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"astroguru/internal/domain"
	"astroguru/internal/infra/metrics"
)

// DefaultWindowDays — размер окна истории по умолчанию.
const DefaultWindowDays = 7

// Service реализует бизнес-логику выдачи гороскопов: ленивое создание
// записи за день и дозаполнение окна истории. Корректность при гонках
// держится на уникальном индексе (user_id, date) и перечитывании победителя.
type Service struct {
	repo domain.HoroscopeRepo
	pool domain.ContentPool
	now  func() time.Time
}

// NewService создаёт сервис. nowFn нужен для детерминированных тестов;
// nil означает time.Now.
func NewService(repo domain.HoroscopeRepo, pool domain.ContentPool, nowFn func() time.Time) *Service {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Service{repo: repo, pool: pool, now: nowFn}
}

// GetToday возвращает гороскоп пользователя на сегодня.
func (s *Service) GetToday(ctx context.Context, user domain.User) (domain.Horoscope, error) {
	return s.GetForDay(ctx, user, s.now())
}

// GetForDay возвращает гороскоп за день, создавая его при первом обращении.
// Повторные вызовы за тот же день всегда возвращают одно и то же содержимое.
// Проигранная гонка на вставке не ошибка: перечитываем сохранённую запись.
func (s *Service) GetForDay(ctx context.Context, user domain.User, day time.Time) (domain.Horoscope, error) {
	day = domain.NormalizeDay(day)

	existing, err := s.repo.FindByUserAndDate(ctx, user.ID, day)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrHoroscopeNotFound) {
		return domain.Horoscope{}, fmt.Errorf("чтение гороскопа: %w", err)
	}

	start := time.Now()
	pending := domain.Horoscope{
		UserID:     user.ID,
		ZodiacSign: user.ZodiacSign,
		Date:       day,
		Content:    s.pool.Pick(user.ZodiacSign),
		Category:   domain.CategoryGeneral,
	}
	created, err := s.repo.CreateHoroscope(ctx, pending)
	if err == nil {
		metrics.ObserveGeneration(string(user.ZodiacSign), start)
		return created, nil
	}
	if !errors.Is(err, domain.ErrDuplicateHoroscope) {
		return domain.Horoscope{}, fmt.Errorf("сохранение гороскопа: %w", err)
	}

	winner, err := s.repo.FindByUserAndDate(ctx, user.ID, day)
	if err != nil {
		return domain.Horoscope{}, fmt.Errorf("перечитывание после гонки: %w", err)
	}
	return winner, nil
}

// GetWindow возвращает историю за окно в days календарных дней, новые первыми,
// предварительно дозаполнив отсутствующие дни. days <= 0 означает окно по умолчанию.
func (s *Service) GetWindow(ctx context.Context, user domain.User, days int) ([]domain.Horoscope, error) {
	if days <= 0 {
		days = DefaultWindowDays
	}

	today := domain.NormalizeDay(s.now())
	from := today.AddDate(0, 0, -(days - 1))

	existing, err := s.repo.FindRange(ctx, user.ID, from)
	if err != nil {
		return nil, fmt.Errorf("чтение истории: %w", err)
	}

	pending := s.missingDays(user, today, days, existing)
	if len(pending) == 0 {
		return sortNewestFirst(existing), nil
	}

	// Пачка различна по ключам внутри себя, но параллельный одиночный запрос
	// мог успеть занять тот же день. Конфликт гасится в хранилище, итог в любом
	// случае перечитываем: доверяем только сохранённому.
	if err := s.repo.BulkCreate(ctx, pending); err != nil && !errors.Is(err, domain.ErrDuplicateHoroscope) {
		return nil, fmt.Errorf("дозаполнение истории: %w", err)
	}
	metrics.AddBackfilled(len(pending))

	refreshed, err := s.repo.FindRange(ctx, user.ID, from)
	if err != nil {
		return nil, fmt.Errorf("перечитывание истории: %w", err)
	}
	return sortNewestFirst(refreshed), nil
}

func (s *Service) missingDays(user domain.User, today time.Time, days int, existing []domain.Horoscope) []domain.Horoscope {
	present := make(map[int64]bool, len(existing))
	for _, h := range existing {
		present[domain.NormalizeDay(h.Date).Unix()] = true
	}

	var pending []domain.Horoscope
	for i := 0; i < days; i++ {
		day := today.AddDate(0, 0, -i)
		if present[day.Unix()] {
			continue
		}
		pending = append(pending, domain.Horoscope{
			UserID:     user.ID,
			ZodiacSign: user.ZodiacSign,
			Date:       day,
			Content:    s.pool.Pick(user.ZodiacSign),
			Category:   domain.CategoryGeneral,
		})
	}
	return pending
}

func sortNewestFirst(hs []domain.Horoscope) []domain.Horoscope {
	sort.SliceStable(hs, func(i, j int) bool { return hs[i].Date.After(hs[j].Date) })
	return hs
}

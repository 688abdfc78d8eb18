package horoscope

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"astroguru/internal/domain"
)

// memRepo — потокобезопасное хранилище в памяти с семантикой уникального
// индекса (user_id, date).
type memRepo struct {
	mu          sync.Mutex
	records     map[string]domain.Horoscope
	nextID      int64
	bulkCalls   int
	createCalls int
}

func newMemRepo() *memRepo {
	return &memRepo{records: make(map[string]domain.Horoscope)}
}

func recordKey(userID int64, day time.Time) string {
	return fmt.Sprintf("%d:%s", userID, domain.NormalizeDay(day).Format("2006-01-02"))
}

func (r *memRepo) FindByUserAndDate(_ context.Context, userID int64, day time.Time) (domain.Horoscope, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.records[recordKey(userID, day)]
	if !ok {
		return domain.Horoscope{}, domain.ErrHoroscopeNotFound
	}
	return h, nil
}

func (r *memRepo) CreateHoroscope(_ context.Context, h domain.Horoscope) (domain.Horoscope, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	key := recordKey(h.UserID, h.Date)
	if _, ok := r.records[key]; ok {
		return domain.Horoscope{}, domain.ErrDuplicateHoroscope
	}
	r.nextID++
	h.ID = r.nextID
	h.Date = domain.NormalizeDay(h.Date)
	r.records[key] = h
	return h, nil
}

func (r *memRepo) FindRange(_ context.Context, userID int64, from time.Time) ([]domain.Horoscope, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	from = domain.NormalizeDay(from)
	var out []domain.Horoscope
	for _, h := range r.records {
		if h.UserID == userID && !h.Date.Before(from) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *memRepo) BulkCreate(_ context.Context, hs []domain.Horoscope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bulkCalls++
	for _, h := range hs {
		key := recordKey(h.UserID, h.Date)
		if _, ok := r.records[key]; ok {
			// Занято параллельной вставкой: пропускаем, как ON CONFLICT DO NOTHING.
			continue
		}
		r.nextID++
		h.ID = r.nextID
		h.Date = domain.NormalizeDay(h.Date)
		r.records[key] = h
	}
	return nil
}

func (r *memRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// fakePool нумерует выдачи, чтобы различать независимые выборы.
type fakePool struct {
	mu    sync.Mutex
	picks int
}

func (p *fakePool) Pick(sign domain.ZodiacSign) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.picks++
	return fmt.Sprintf("%s-%d", sign, p.picks)
}

func fixedNow(day time.Time) func() time.Time {
	return func() time.Time { return day }
}

var testUser = domain.User{ID: 1, ZodiacSign: domain.Cancer}

func TestGetForDayCreatesOnceAndStaysStable(t *testing.T) {
	repo := newMemRepo()
	pool := &fakePool{}
	svc := NewService(repo, pool, fixedNow(time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)))

	day := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	first, err := svc.GetForDay(context.Background(), testUser, day)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	second, err := svc.GetForDay(context.Background(), testUser, day)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if first.Content != second.Content {
		t.Fatalf("повторный вызов вернул другое содержимое: %q и %q", first.Content, second.Content)
	}
	if pool.picks != 1 {
		t.Fatalf("ожидали один выбор из пула, было %d", pool.picks)
	}
	if repo.count() != 1 {
		t.Fatalf("ожидали одну запись, нашли %d", repo.count())
	}
}

func TestGetForDayNormalizesDayKey(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, &fakePool{}, nil)

	morning := time.Date(2024, time.June, 1, 0, 30, 0, 0, time.UTC)
	evening := time.Date(2024, time.June, 1, 23, 59, 59, 0, time.UTC)

	first, err := svc.GetForDay(context.Background(), testUser, morning)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	second, err := svc.GetForDay(context.Background(), testUser, evening)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if first.ID != second.ID {
		t.Fatal("время суток не должно менять ключ дня")
	}
	if !first.Date.Equal(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("дата не усечена до полуночи: %s", first.Date)
	}
}

func TestGetForDayCreatesIndependentDays(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, &fakePool{}, nil)

	first, err := svc.GetForDay(context.Background(), testUser, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	second, err := svc.GetForDay(context.Background(), testUser, time.Date(2024, time.June, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if first.ID == second.ID || first.Content == second.Content {
		t.Fatal("ожидали независимые записи за разные дни")
	}
	if repo.count() != 2 {
		t.Fatalf("ожидали две записи, нашли %d", repo.count())
	}
}

func TestGetForDayConcurrentCallersAgree(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, &fakePool{}, nil)
	day := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	const callers = 16
	results := make([]domain.Horoscope, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx], errs[idx] = svc.GetForDay(context.Background(), testUser, day)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("вызов %d: не ожидали ошибку: %v", i, errs[i])
		}
		if results[i].Content != results[0].Content {
			t.Fatalf("вызов %d: получили другое содержимое", i)
		}
	}
	if repo.count() != 1 {
		t.Fatalf("после гонки ожидали ровно одну запись, нашли %d", repo.count())
	}
}

// raceRepo всегда проигрывает вставку: первый Find промахивается, Create
// отвечает дубликатом, перечитывание возвращает победителя.
type raceRepo struct {
	memRepo
	winner domain.Horoscope
	finds  int
}

func (r *raceRepo) FindByUserAndDate(_ context.Context, _ int64, _ time.Time) (domain.Horoscope, error) {
	r.finds++
	if r.finds == 1 {
		return domain.Horoscope{}, domain.ErrHoroscopeNotFound
	}
	return r.winner, nil
}

func (r *raceRepo) CreateHoroscope(_ context.Context, _ domain.Horoscope) (domain.Horoscope, error) {
	return domain.Horoscope{}, domain.ErrDuplicateHoroscope
}

func TestGetForDayLosingRaceReturnsWinner(t *testing.T) {
	winner := domain.Horoscope{ID: 7, UserID: 1, ZodiacSign: domain.Cancer, Content: "чужая запись"}
	repo := &raceRepo{winner: winner}
	svc := NewService(repo, &fakePool{}, nil)

	got, err := svc.GetForDay(context.Background(), testUser, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("гонка не должна приводить к ошибке: %v", err)
	}
	if got.ID != winner.ID || got.Content != winner.Content {
		t.Fatalf("ожидали запись победителя, получили %+v", got)
	}
}

func TestGetWindowBackfillsEmptyHistory(t *testing.T) {
	repo := newMemRepo()
	today := time.Date(2024, time.June, 7, 9, 0, 0, 0, time.UTC)
	svc := NewService(repo, &fakePool{}, fixedNow(today))

	window, err := svc.GetWindow(context.Background(), testUser, 7)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(window) != 7 {
		t.Fatalf("ожидали 7 записей, получили %d", len(window))
	}
	for i, h := range window {
		want := domain.NormalizeDay(today).AddDate(0, 0, -i)
		if !h.Date.Equal(want) {
			t.Fatalf("позиция %d: ожидали %s, получили %s", i, want.Format("2006-01-02"), h.Date.Format("2006-01-02"))
		}
		if h.ZodiacSign != testUser.ZodiacSign {
			t.Fatalf("позиция %d: знак %s вместо %s", i, h.ZodiacSign, testUser.ZodiacSign)
		}
	}
}

func TestGetWindowPreservesExistingContent(t *testing.T) {
	repo := newMemRepo()
	today := time.Date(2024, time.June, 7, 9, 0, 0, 0, time.UTC)
	existing, err := repo.CreateHoroscope(context.Background(), domain.Horoscope{
		UserID:     testUser.ID,
		ZodiacSign: testUser.ZodiacSign,
		Date:       today,
		Content:    "сохранённый текст",
	})
	if err != nil {
		t.Fatalf("подготовка: %v", err)
	}

	svc := NewService(repo, &fakePool{}, fixedNow(today))
	window, err := svc.GetWindow(context.Background(), testUser, 7)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(window) != 7 {
		t.Fatalf("ожидали 7 записей, получили %d", len(window))
	}
	if window[0].ID != existing.ID || window[0].Content != "сохранённый текст" {
		t.Fatalf("дозаполнение перезаписало существующую запись: %+v", window[0])
	}
}

func TestGetWindowCompleteHistorySkipsBulkCreate(t *testing.T) {
	repo := newMemRepo()
	today := domain.NormalizeDay(time.Date(2024, time.June, 7, 0, 0, 0, 0, time.UTC))
	for i := 0; i < 7; i++ {
		if _, err := repo.CreateHoroscope(context.Background(), domain.Horoscope{
			UserID:     testUser.ID,
			ZodiacSign: testUser.ZodiacSign,
			Date:       today.AddDate(0, 0, -i),
			Content:    fmt.Sprintf("день %d", i),
		}); err != nil {
			t.Fatalf("подготовка: %v", err)
		}
	}

	pool := &fakePool{}
	svc := NewService(repo, pool, fixedNow(today))
	window, err := svc.GetWindow(context.Background(), testUser, 7)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(window) != 7 {
		t.Fatalf("ожидали 7 записей, получили %d", len(window))
	}
	if repo.bulkCalls != 0 {
		t.Fatalf("полная история не должна писать в хранилище, было %d вызовов", repo.bulkCalls)
	}
	if pool.picks != 0 {
		t.Fatalf("полная история не должна трогать пул, было %d выборов", pool.picks)
	}
}

// collidingRepo подсовывает чужую запись на пропущенный день прямо перед
// пачечной вставкой — имитация гонки с одиночным запросом.
type collidingRepo struct {
	*memRepo
	collideDay time.Time
	user       domain.User
}

func (r *collidingRepo) BulkCreate(ctx context.Context, hs []domain.Horoscope) error {
	_, _ = r.memRepo.CreateHoroscope(ctx, domain.Horoscope{
		UserID:     r.user.ID,
		ZodiacSign: r.user.ZodiacSign,
		Date:       r.collideDay,
		Content:    "запись конкурента",
	})
	return r.memRepo.BulkCreate(ctx, hs)
}

func TestGetWindowToleratesConcurrentSingleDayCreate(t *testing.T) {
	today := domain.NormalizeDay(time.Date(2024, time.June, 7, 0, 0, 0, 0, time.UTC))
	repo := &collidingRepo{memRepo: newMemRepo(), collideDay: today.AddDate(0, 0, -3), user: testUser}
	svc := NewService(repo, &fakePool{}, fixedNow(today))

	window, err := svc.GetWindow(context.Background(), testUser, 7)
	if err != nil {
		t.Fatalf("гонка с одиночным запросом не должна приводить к ошибке: %v", err)
	}
	if len(window) != 7 {
		t.Fatalf("ожидали 7 записей, получили %d", len(window))
	}
	if window[3].Content != "запись конкурента" {
		t.Fatalf("ожидали сохранённую запись победителя, получили %q", window[3].Content)
	}
}

func TestGetWindowDefaultsToSevenDays(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, &fakePool{}, fixedNow(time.Date(2024, time.June, 7, 0, 0, 0, 0, time.UTC)))

	window, err := svc.GetWindow(context.Background(), testUser, 0)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(window) != DefaultWindowDays {
		t.Fatalf("ожидали окно по умолчанию %d, получили %d", DefaultWindowDays, len(window))
	}
}

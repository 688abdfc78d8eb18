package domain

import "time"

// User описывает зарегистрированного пользователя.
// Знак зодиака вычисляется один раз при регистрации и далее не меняется.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Birthdate    time.Time
	ZodiacSign   ZodiacSign
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Horoscope — гороскоп пользователя за один календарный день.
// Пара (UserID, Date) уникальна, содержимое после создания не меняется.
type Horoscope struct {
	ID         int64
	UserID     int64
	ZodiacSign ZodiacSign
	Date       time.Time
	Content    string
	Category   string
	CreatedAt  time.Time
}

// CategoryGeneral — категория по умолчанию для сгенерированных гороскопов.
const CategoryGeneral = "general"

// GenerateJob — задача предгенерации гороскопа на день.
type GenerateJob struct {
	JobID  string    `json:"job_id"`
	UserID int64     `json:"user_id"`
	Date   time.Time `json:"date"`
}

// NormalizeDay приводит момент времени к началу календарного дня в UTC.
// Именно этот ключ используется при любых чтениях и записях гороскопов.
func NormalizeDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

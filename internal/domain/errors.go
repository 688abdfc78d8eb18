package domain

import "errors"

var (
	// ErrDuplicateHoroscope сигнализирует о нарушении уникальности (user_id, date).
	// Сервисы обязаны перечитать победившую запись, а не возвращать ошибку наружу.
	ErrDuplicateHoroscope = errors.New("horoscope already exists for this user and date")

	// ErrHoroscopeNotFound возвращается при отсутствии записи за день.
	ErrHoroscopeNotFound = errors.New("horoscope not found")

	// ErrUserNotFound возвращается при отсутствии пользователя.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken возвращается при повторной регистрации на тот же email.
	ErrEmailTaken = errors.New("user already exists with this email")

	// ErrInvalidCredentials возвращается при неверной паре email/пароль.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

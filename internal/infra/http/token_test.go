package http

import (
	"errors"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)

	raw, err := m.Issue(42)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	userID, err := m.Parse(raw)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if userID != 42 {
		t.Fatalf("ожидали ID 42, получили %d", userID)
	}
}

func TestTokenExpired(t *testing.T) {
	issued := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	m := NewTokenManager("test-secret", time.Hour)
	m.now = func() time.Time { return issued }

	raw, err := m.Issue(42)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	m.now = func() time.Time { return issued.Add(2 * time.Hour) }
	if _, err := m.Parse(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("просроченный токен: ожидали ErrInvalidToken, получили %v", err)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", time.Hour)
	verifier := NewTokenManager("secret-b", time.Hour)

	raw, err := issuer.Issue(42)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if _, err := verifier.Parse(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("чужая подпись: ожидали ErrInvalidToken, получили %v", err)
	}
}

func TestTokenGarbage(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)
	if _, err := m.Parse("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("мусор: ожидали ErrInvalidToken, получили %v", err)
	}
}

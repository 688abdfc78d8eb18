package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"astroguru/internal/domain"
	"astroguru/internal/infra/metrics"
)

const (
	bcryptCost = 12
	minAge     = 13
	maxAge     = 120
)

const birthdateLayout = "2006-01-02"

var (
	nameRegex  = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	lowerRegex = regexp.MustCompile(`[a-z]`)
	upperRegex = regexp.MustCompile(`[A-Z]`)
	digitRegex = regexp.MustCompile(`\d`)
)

// ValidationError собирает сообщения о невалидных полях регистрации.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// SignupInput — данные формы регистрации.
type SignupInput struct {
	Name      string `json:"name" validate:"required,min=2,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	Birthdate string `json:"birthdate" validate:"required"`
}

// Service отвечает за регистрацию и вход пользователей.
// Знак зодиака вычисляется ровно один раз — здесь, при регистрации.
type Service struct {
	users    domain.UserRepo
	validate *validator.Validate
	now      func() time.Time
}

// NewService создаёт сервис. nowFn нужен для детерминированных проверок возраста.
func NewService(users domain.UserRepo, nowFn func() time.Time) *Service {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Service{users: users, validate: validator.New(), now: nowFn}
}

// SignUp валидирует ввод, хэширует пароль и создаёт пользователя
// с вычисленным знаком зодиака.
func (s *Service) SignUp(ctx context.Context, in SignupInput) (domain.User, error) {
	birthdate, verr := s.validateSignup(in)
	if verr != nil {
		return domain.User{}, verr
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("хэширование пароля: %w", err)
	}

	sign := domain.ClassifySign(birthdate)
	user, err := s.users.CreateUser(ctx, domain.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: string(hash),
		Birthdate:    birthdate,
		ZodiacSign:   sign,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return domain.User{}, err
		}
		return domain.User{}, fmt.Errorf("создание пользователя: %w", err)
	}
	metrics.IncSignup(string(sign))
	return user, nil
}

// Login проверяет пару email/пароль и возвращает пользователя.
func (s *Service) Login(ctx context.Context, email, password string) (domain.User, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.User{}, domain.ErrInvalidCredentials
		}
		return domain.User{}, fmt.Errorf("получение пользователя: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return user, nil
}

// Profile возвращает пользователя по ID из токена.
func (s *Service) Profile(ctx context.Context, userID int64) (domain.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (s *Service) validateSignup(in SignupInput) (time.Time, error) {
	var messages []string

	if err := s.validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				switch fe.Field() {
				case "Name":
					messages = append(messages, "Name must be between 2 and 100 characters")
				case "Email":
					messages = append(messages, "Please provide a valid email address")
				case "Password":
					messages = append(messages, "Password must be at least 6 characters long")
				case "Birthdate":
					messages = append(messages, "Please provide a valid birthdate")
				}
			}
		} else {
			messages = append(messages, "Validation failed")
		}
	}

	if in.Name != "" && !nameRegex.MatchString(in.Name) {
		messages = append(messages, "Name can only contain letters and spaces")
	}
	if in.Password != "" && !(lowerRegex.MatchString(in.Password) && upperRegex.MatchString(in.Password) && digitRegex.MatchString(in.Password)) {
		messages = append(messages, "Password must contain at least one lowercase letter, one uppercase letter, and one number")
	}

	var birthdate time.Time
	if in.Birthdate != "" {
		parsed, err := time.Parse(birthdateLayout, in.Birthdate)
		if err != nil {
			messages = append(messages, "Please provide a valid birthdate")
		} else {
			birthdate = domain.NormalizeDay(parsed)
			now := domain.NormalizeDay(s.now())
			if birthdate.After(now.AddDate(-minAge, 0, 0)) {
				messages = append(messages, "You must be at least 13 years old to register")
			}
			if birthdate.Before(now.AddDate(-maxAge, 0, 0)) {
				messages = append(messages, "Please provide a valid birthdate")
			}
		}
	}

	if len(messages) > 0 {
		return time.Time{}, &ValidationError{Messages: messages}
	}
	return birthdate, nil
}

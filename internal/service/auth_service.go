package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"time"

	"taskapi/internal/auth"
	"taskapi/internal/logger"
	"taskapi/internal/models/user"
	rep "taskapi/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	usernameMaxLength = 150
	emailMaxLength    = 254
	fieldRequired     = "This field is required."
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

type TokenIssuer interface {
	Issue(user.Identity) (auth.TokenPair, error)
	Refresh(string) (string, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type RegisterInput struct {
	Username    string
	Password    string
	Email       string
	IsStaff     bool
	IsSuperuser bool
}

type AuthService struct {
	users  UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
	// dummyHash сравнивается при неизвестном логине, чтобы время ответа
	// не выдавало существование пользователя.
	dummyHash string
}

func NewAuthService(users UserRepository, hasher PasswordHasher, tokens TokenIssuer) *AuthService {
	dummyHash, err := hasher.Hash(uuid.NewString())
	if err != nil {
		logger.Warn("Service: Не удалось подготовить фиктивный хеш", zap.Error(err))
	}
	return &AuthService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		dummyHash: dummyHash,
	}
}

func (s *AuthService) HealthCheck(ctx context.Context) error {
	if err := s.users.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка хранилища пользователей: %w", err)
	}
	return nil
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*user.User, error) {
	if fields := validateRegister(in); len(fields) > 0 {
		return nil, NewFieldErrors(fields)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, NewValidationError("password", "Ensure this field has no more than 72 bytes.")
		}
		return nil, fmt.Errorf("хеширование пароля: %w", err)
	}

	created := &user.User{
		ID:           uuid.New(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		IsStaff:      in.IsStaff,
		IsSuperuser:  in.IsSuperuser,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}

	if err := s.users.Create(ctx, created); err != nil {
		if errors.Is(err, rep.ErrAlreadyExists) {
			return nil, NewValidationError("username", "A user with that username already exists.")
		}
		return nil, fmt.Errorf("создание пользователя: %w", err)
	}

	logger.Info("Service: Пользователь зарегистрирован",
		zap.String("username", created.Username),
		zap.Bool("is_staff", created.IsStaff))
	return created, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (auth.TokenPair, error) {
	fields := map[string]string{}
	if username == "" {
		fields["username"] = fieldRequired
	}
	if password == "" {
		fields["password"] = fieldRequired
	}
	if len(fields) > 0 {
		return auth.TokenPair{}, NewFieldErrors(fields)
	}

	found, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			return auth.TokenPair{}, invalidCredentials()
		}
		return auth.TokenPair{}, fmt.Errorf("поиск пользователя: %w", err)
	}

	if !s.hasher.Verify(password, found.PasswordHash) {
		return auth.TokenPair{}, invalidCredentials()
	}

	pair, err := s.tokens.Issue(found.Identity())
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("выпуск токенов: %w", err)
	}
	return pair, nil
}

func (s *AuthService) RefreshToken(ctx context.Context, refresh string) (string, error) {
	if refresh == "" {
		return "", NewBusinessError(CodeValidation, "Refresh token is required",
			ToDetail("refresh", fieldRequired))
	}

	access, err := s.tokens.Refresh(refresh)
	if err != nil {
		logger.Info("Service: Refresh-токен отклонён", zap.Error(err))
		return "", &BusinessError{
			Code:    CodeTokenError,
			Message: "Invalid or expired refresh token",
			Details: map[string]any{},
			Err:     err,
		}
	}
	return access, nil
}

func invalidCredentials() *BusinessError {
	return NewBusinessError(CodeInvalidCredentials, "Invalid username or password")
}

func validateRegister(in RegisterInput) map[string]string {
	fields := map[string]string{}

	switch {
	case in.Username == "":
		fields["username"] = fieldRequired
	case len(in.Username) > usernameMaxLength:
		fields["username"] = "Ensure this field has no more than 150 characters."
	case !usernamePattern.MatchString(in.Username):
		fields["username"] = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	}

	if in.Password == "" {
		fields["password"] = fieldRequired
	}

	if in.Email != "" {
		if len(in.Email) > emailMaxLength {
			fields["email"] = "Ensure this field has no more than 254 characters."
		} else if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
			fields["email"] = "Enter a valid email address."
		}
	}

	return fields
}

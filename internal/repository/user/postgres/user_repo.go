package postgres

import (
	"context"
	"errors"
	"fmt"

	"taskapi/internal/logger"
	"taskapi/internal/models/user"
	repo "taskapi/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

type Storage struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) Create(ctx context.Context, u *user.User) error {
	query := `INSERT INTO users
				(id, username, email, password_hash, is_staff, is_superuser, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.pool.Exec(ctx, query,
		u.ID,
		u.Username,
		u.Email,
		u.PasswordHash,
		u.IsStaff,
		u.IsSuperuser,
		u.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repo.ErrAlreadyExists
		}
		logger.Error("Repository: Не удалось добавить пользователя", err, zap.String("username", u.Username))
		return fmt.Errorf("добавление пользователя: %w", err)
	}
	return nil
}

func (s *Storage) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	query := `SELECT id, username, email, password_hash, is_staff, is_superuser, created_at
				FROM users
				WHERE username = $1`

	u := &user.User{}
	err := s.pool.QueryRow(ctx, query, username).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.IsStaff,
		&u.IsSuperuser,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить пользователя", err)
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

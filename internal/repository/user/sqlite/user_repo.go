package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskapi/internal/logger"
	"taskapi/internal/models/user"
	repo "taskapi/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type userRecord struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Username     string    `gorm:"uniqueIndex;not null;size:150"`
	Email        string    `gorm:"not null;default:'';size:254"`
	PasswordHash string    `gorm:"not null"`
	IsStaff      bool      `gorm:"not null;default:false"`
	IsSuperuser  bool      `gorm:"not null;default:false"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (userRecord) TableName() string {
	return "users"
}

type Storage struct {
	db *gorm.DB
}

func New(db *gorm.DB) (*Storage, error) {
	if err := db.AutoMigrate(&userRecord{}); err != nil {
		logger.Error("Repository: Ошибка миграции таблицы users", err)
		return nil, fmt.Errorf("миграция users: %w", err)
	}
	return &Storage{db: db}, nil
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Storage) Create(ctx context.Context, u *user.User) error {
	db := s.db.WithContext(ctx)

	// проверка до вставки: sqlite-драйвер не переводит нарушение
	// уникальности в gorm.ErrDuplicatedKey без TranslateError
	var count int64
	if err := db.Model(&userRecord{}).Where("username = ?", u.Username).Count(&count).Error; err != nil {
		return fmt.Errorf("проверка пользователя: %w", err)
	}
	if count > 0 {
		return repo.ErrAlreadyExists
	}

	rec := &userRecord{
		ID:           u.ID.String(),
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		IsStaff:      u.IsStaff,
		IsSuperuser:  u.IsSuperuser,
		CreatedAt:    u.CreatedAt,
	}
	if err := db.Create(rec).Error; err != nil {
		logger.Error("Repository: Не удалось добавить пользователя", err)
		return fmt.Errorf("добавление пользователя: %w", err)
	}
	return nil
}

func (s *Storage) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	var rec userRecord
	if err := s.db.WithContext(ctx).First(&rec, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrNotFound
		}
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}

	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return nil, fmt.Errorf("разбор id %q: %w", rec.ID, err)
	}
	return &user.User{
		ID:           id,
		Username:     rec.Username,
		Email:        rec.Email,
		PasswordHash: rec.PasswordHash,
		IsStaff:      rec.IsStaff,
		IsSuperuser:  rec.IsSuperuser,
		CreatedAt:    rec.CreatedAt.UTC(),
	}, nil
}

package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskapi/internal/logger"
	"taskapi/internal/models/task"
	repo "taskapi/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type taskRecord struct {
	UUID        string    `gorm:"column:uuid;primaryKey;size:36"`
	Title       *string   `gorm:"column:title;size:255"`
	Description *string   `gorm:"column:description"`
	Completed   bool      `gorm:"column:completed;not null;default:false;index:idx_tasks_completed_created_at,priority:1"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;autoCreateTime:false;index:idx_tasks_created_at;index:idx_tasks_completed_created_at,priority:2"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null;autoUpdateTime:false"`
}

func (taskRecord) TableName() string {
	return "tasks"
}

func toRecord(t *task.Task) *taskRecord {
	return &taskRecord{
		UUID:        t.UUID.String(),
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (r *taskRecord) toTask() (*task.Task, error) {
	id, err := uuid.Parse(r.UUID)
	if err != nil {
		return nil, fmt.Errorf("разбор uuid %q: %w", r.UUID, err)
	}
	return &task.Task{
		UUID:        id,
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}, nil
}

type Storage struct {
	db *gorm.DB
}

func New(db *gorm.DB) (*Storage, error) {
	if err := db.AutoMigrate(&taskRecord{}); err != nil {
		logger.Error("Repository: Ошибка миграции таблицы tasks", err)
		return nil, fmt.Errorf("миграция tasks: %w", err)
	}
	return &Storage{db: db}, nil
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("получение sql.DB: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) Insert(ctx context.Context, options ...task.TaskOption) (*task.Task, error) {
	created := task.New(time.Now(), options...)

	if err := s.db.WithContext(ctx).Create(toRecord(created)).Error; err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err)
		return nil, fmt.Errorf("добавление задачи: %w", err)
	}
	return created, nil
}

func (s *Storage) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	var rec taskRecord
	if err := s.db.WithContext(ctx).First(&rec, "uuid = ?", id.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err)
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return rec.toTask()
}

func (s *Storage) Update(ctx context.Context, id uuid.UUID, options ...task.TaskOption) (*task.Task, error) {
	var updated *task.Task

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec taskRecord
		if err := tx.First(&rec, "uuid = ?", id.String()).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repo.ErrNotFound
			}
			return fmt.Errorf("получение задачи: %w", err)
		}

		existing, err := rec.toTask()
		if err != nil {
			return err
		}

		updated = existing.Clone()
		task.Apply(updated, options...)
		updated.UUID = existing.UUID
		updated.CreatedAt = existing.CreatedAt
		updated.UpdatedAt = task.Touch(existing.UpdatedAt, time.Now())

		// map, чтобы nil записывался как NULL
		return tx.Model(&taskRecord{}).Where("uuid = ?", id.String()).Updates(map[string]any{
			"title":       updated.Title,
			"description": updated.Description,
			"completed":   updated.Completed,
			"updated_at":  updated.UpdatedAt,
		}).Error
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
		logger.Error("Repository: Не удалось обновить задачу", err)
		return nil, fmt.Errorf("обновление задачи: %w", err)
	}
	return updated, nil
}

func (s *Storage) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&taskRecord{}, "uuid = ?", id.String())
	if err := result.Error; err != nil {
		logger.Error("Repository: Удаление задачи", err)
		return fmt.Errorf("удаление задачи: %w", err)
	}
	if result.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) ListAll(ctx context.Context) ([]*task.Task, error) {
	var recs []taskRecord
	if err := s.db.WithContext(ctx).Order("created_at, uuid").Find(&recs).Error; err != nil {
		logger.Error("Repository: Не удалось получить задачи", err)
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	return toTasks(recs)
}

func (s *Storage) List(ctx context.Context, params repo.ListParams) (repo.Page, error) {
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&taskRecord{}).Scopes(completedScope(params.Completed)).Count(&total).Error; err != nil {
		logger.Error("Repository: Не удалось посчитать задачи", err)
		return repo.Page{}, fmt.Errorf("подсчёт задач: %w", err)
	}

	pagination, err := repo.Paginate(int(total), params.PageSize, params.PageNumber)
	if err != nil {
		return repo.Page{}, err
	}

	var recs []taskRecord
	err = db.Scopes(completedScope(params.Completed)).
		Order("created_at, uuid").
		Limit(pagination.Limit).
		Offset(pagination.Offset).
		Find(&recs).Error
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err)
		return repo.Page{}, fmt.Errorf("получение задач: %w", err)
	}

	tasks, err := toTasks(recs)
	if err != nil {
		return repo.Page{}, err
	}
	return pagination.PageOf(tasks, params), nil
}

func completedScope(completed *bool) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if completed == nil {
			return db
		}
		return db.Where("completed = ?", *completed)
	}
}

func toTasks(recs []taskRecord) ([]*task.Task, error) {
	tasks := make([]*task.Task, 0, len(recs))
	for i := range recs {
		t, err := recs[i].toTask()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

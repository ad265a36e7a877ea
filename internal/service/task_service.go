package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"taskapi/internal/logger"
	"taskapi/internal/models/task"
	"taskapi/internal/models/user"
	"taskapi/internal/policy"
	rep "taskapi/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// здесь происходит проверка прав и ошибок бизнес-логики

type TaskService struct {
	repo   TaskRepository
	policy policy.Policy
}

func NewTaskService(repo TaskRepository, pol policy.Policy) *TaskService {
	return &TaskService{
		repo:   repo,
		policy: pol,
	}
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}

func (s *TaskService) authorize(op policy.Operation, identity *user.Identity) error {
	decision := s.policy.Authorize(op, identity)
	if decision.Allowed {
		return nil
	}

	logger.Info("Service: Доступ запрещён",
		zap.String("operation", string(op)),
		zap.String("reason", string(decision.Reason)))

	switch decision.Reason {
	case policy.ReasonUnauthenticated:
		return NewBusinessError(CodeUnauthenticated, "Authentication required")
	case policy.ReasonForbidden:
		if op == policy.DeleteTask {
			return NewBusinessError(CodeForbidden, "Only admin users can delete tasks")
		}
		return NewBusinessError(CodeForbidden, "Permission denied")
	default:
		return NewBusinessError(CodeForbidden, "Operation is not permitted")
	}
}

func (s *TaskService) ListTasks(ctx context.Context, identity *user.Identity) ([]*task.Task, error) {
	if err := s.authorize(policy.ListTasks, identity); err != nil {
		return nil, err
	}

	tasks, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) GetTask(ctx context.Context, identity *user.Identity, id uuid.UUID) (*task.Task, error) {
	if err := s.authorize(policy.GetTask, identity); err != nil {
		return nil, err
	}

	found, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeError(err, id)
	}
	return found, nil
}

func (s *TaskService) CreateTask(ctx context.Context, identity *user.Identity, options ...task.TaskOption) (*task.Task, error) {
	if err := s.authorize(policy.CreateTask, identity); err != nil {
		return nil, err
	}

	created, err := s.repo.Insert(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("создание задачи: %w", err)
	}

	logger.Info("Service: Задача создана", zap.String("task_id", created.UUID.String()))
	return created, nil
}

// UpdateTask меняет только переданные поля.
func (s *TaskService) UpdateTask(ctx context.Context, identity *user.Identity, id uuid.UUID, options ...task.TaskOption) (*task.Task, error) {
	if err := s.authorize(policy.UpdateTask, identity); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, options...)
	if err != nil {
		return nil, s.storeError(err, id)
	}

	logger.Info("Service: Задача обновлена",
		zap.String("task_id", id.String()),
		zap.String("username", identity.Username))
	return updated, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, identity *user.Identity, id uuid.UUID) error {
	if err := s.authorize(policy.DeleteTask, identity); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.storeError(err, id)
	}

	logger.Info("Service: Задача удалена",
		zap.String("task_id", id.String()),
		zap.String("username", identity.Username))
	return nil
}

// FilterTasks - выборка по completed ("true"/"false"/"null") с пагинацией.
func (s *TaskService) FilterTasks(ctx context.Context, identity *user.Identity, completed string, pageSize, pageNumber int) (rep.Page, error) {
	if err := s.authorize(policy.FilterTasks, identity); err != nil {
		return rep.Page{}, err
	}

	page, err := s.repo.List(ctx, rep.ListParams{
		Completed:  ParseCompletedFilter(completed),
		PageSize:   pageSize,
		PageNumber: pageNumber,
	})
	switch {
	case errors.Is(err, rep.ErrInvalidPage):
		return rep.Page{}, NewBusinessError(CodeInvalidPage, "Invalid page number",
			ToDetail("page_number", pageNumber))
	case errors.Is(err, rep.ErrInvalidPageSize):
		return rep.Page{}, NewValidationError("page_size", "must be a positive integer")
	case err != nil:
		return rep.Page{}, fmt.Errorf("фильтрация задач: %w", err)
	}
	return page, nil
}

// ParseCompletedFilter: "null" - без фильтра, "true"/"1" - выполненные,
// всё остальное - невыполненные. Регистр не важен.
func ParseCompletedFilter(raw string) *bool {
	value := strings.ToLower(raw)
	if value == "null" {
		return nil
	}
	completed := value == "true" || value == "1"
	return &completed
}

func (s *TaskService) storeError(err error, id uuid.UUID) error {
	if errors.Is(err, rep.ErrNotFound) {
		logger.Info("Service: Задача не найдена", zap.String("target_id", id.String()))
		return NewNotFound("Task", id.String())
	}
	return fmt.Errorf("задача %s: %w", id.String(), err)
}

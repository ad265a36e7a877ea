package service

import (
	"context"

	"taskapi/internal/models/task"
	"taskapi/internal/models/user"
	"taskapi/internal/repository"

	"github.com/google/uuid"
)

type TaskRepository interface {
	HealthCheck(context.Context) error
	Insert(context.Context, ...task.TaskOption) (*task.Task, error)
	GetByID(context.Context, uuid.UUID) (*task.Task, error)
	Update(context.Context, uuid.UUID, ...task.TaskOption) (*task.Task, error)
	Delete(context.Context, uuid.UUID) error
	ListAll(context.Context) ([]*task.Task, error)
	List(context.Context, repository.ListParams) (repository.Page, error)
}

type UserRepository interface {
	HealthCheck(context.Context) error
	Create(context.Context, *user.User) error
	GetByUsername(context.Context, string) (*user.User, error)
}

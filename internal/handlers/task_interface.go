package handlers

import (
	"context"

	"taskapi/internal/auth"
	"taskapi/internal/models/task"
	"taskapi/internal/models/user"
	rep "taskapi/internal/repository"
	"taskapi/internal/service"

	"github.com/google/uuid"
)

type HealthChecker interface {
	HealthCheck(context.Context) error
}

type TaskService interface {
	ListTasks(context.Context, *user.Identity) ([]*task.Task, error)
	GetTask(context.Context, *user.Identity, uuid.UUID) (*task.Task, error)
	CreateTask(context.Context, *user.Identity, ...task.TaskOption) (*task.Task, error)
	UpdateTask(context.Context, *user.Identity, uuid.UUID, ...task.TaskOption) (*task.Task, error)
	DeleteTask(context.Context, *user.Identity, uuid.UUID) error
	FilterTasks(ctx context.Context, identity *user.Identity, completed string, pageSize, pageNumber int) (rep.Page, error)
}

type AuthService interface {
	Register(context.Context, service.RegisterInput) (*user.User, error)
	Login(ctx context.Context, username, password string) (auth.TokenPair, error)
	RefreshToken(ctx context.Context, refresh string) (string, error)
}

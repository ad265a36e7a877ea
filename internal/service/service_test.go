package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskapi/internal/models/task"
	"taskapi/internal/models/user"
	"taskapi/internal/policy"
	rep "taskapi/internal/repository"
	"taskapi/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTaskRepository - мок репозитория
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTaskRepository) Insert(ctx context.Context, options ...task.TaskOption) (*task.Task, error) {
	args := m.Called(ctx, options)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) Update(ctx context.Context, id uuid.UUID, options ...task.TaskOption) (*task.Task, error) {
	args := m.Called(ctx, id, options)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTaskRepository) ListAll(ctx context.Context) ([]*task.Task, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskRepository) List(ctx context.Context, params rep.ListParams) (rep.Page, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(rep.Page), args.Error(1)
}

var _ service.TaskRepository = (*MockTaskRepository)(nil)

var (
	member = &user.Identity{UserID: uuid.New(), Username: "member"}
	staff  = &user.Identity{UserID: uuid.New(), Username: "admin", IsStaff: true}
)

func assertBusinessCode(t *testing.T, err error, code string) {
	t.Helper()
	var busErr *service.BusinessError
	require.ErrorAs(t, err, &busErr)
	assert.Equal(t, code, busErr.Code)
}

// TestTaskService_HealthCheck тестирует HealthCheck
func TestTaskService_HealthCheck(t *testing.T) {
	tests := []struct {
		name        string
		setupMock   func(*MockTaskRepository)
		expectError bool
	}{
		{
			name: "success - health check passes",
			setupMock: func(m *MockTaskRepository) {
				m.On("HealthCheck", mock.Anything).Return(nil)
			},
			expectError: false,
		},
		{
			name: "error - health check fails",
			setupMock: func(m *MockTaskRepository) {
				m.On("HealthCheck", mock.Anything).Return(errors.New("db connection failed"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)

			svc := service.NewTaskService(mockRepo, policy.Policy{})
			err := svc.HealthCheck(context.Background())

			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "проверка здоровья сервиса")
			} else {
				assert.NoError(t, err)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTaskService_ListTasks(t *testing.T) {
	ctx := context.Background()
	title := "Buy milk"
	stored := []*task.Task{{UUID: uuid.New(), Title: &title}}

	tests := []struct {
		name      string
		identity  *user.Identity
		setupMock func(*MockTaskRepository)
		wantCode  string
		wantLen   int
	}{
		{
			name:     "success - member lists tasks",
			identity: member,
			setupMock: func(m *MockTaskRepository) {
				m.On("ListAll", mock.Anything).Return(stored, nil)
			},
			wantLen: 1,
		},
		{
			name:      "error - anonymous",
			identity:  nil,
			setupMock: func(m *MockTaskRepository) {},
			wantCode:  service.CodeUnauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)

			svc := service.NewTaskService(mockRepo, policy.Policy{})
			tasks, err := svc.ListTasks(ctx, tt.identity)

			if tt.wantCode != "" {
				assertBusinessCode(t, err, tt.wantCode)
			} else {
				require.NoError(t, err)
				assert.Len(t, tasks, tt.wantLen)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTaskService_CreateTask(t *testing.T) {
	ctx := context.Background()
	title := "Buy milk"
	created := task.New(time.Now(), task.WithTitle(&title))

	t.Run("success - anonymous create allowed by default", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("Insert", mock.Anything, mock.Anything).Return(created, nil)

		svc := service.NewTaskService(mockRepo, policy.Policy{})
		got, err := svc.CreateTask(ctx, nil, task.WithTitle(&title))

		require.NoError(t, err)
		assert.Equal(t, created.UUID, got.UUID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("error - anonymous create when auth required", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)

		svc := service.NewTaskService(mockRepo, policy.Policy{RequireAuthForCreate: true})
		_, err := svc.CreateTask(ctx, nil, task.WithTitle(&title))

		assertBusinessCode(t, err, service.CodeUnauthenticated)
		mockRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})
}

func TestTaskService_UpdateTask(t *testing.T) {
	ctx := context.Background()
	taskID := uuid.New()
	title := "New title"

	tests := []struct {
		name      string
		identity  *user.Identity
		setupMock func(*MockTaskRepository)
		wantCode  string
	}{
		{
			name:     "success - member updates",
			identity: member,
			setupMock: func(m *MockTaskRepository) {
				m.On("Update", mock.Anything, taskID, mock.Anything).
					Return(&task.Task{UUID: taskID, Title: &title}, nil)
			},
		},
		{
			name:     "error - not found",
			identity: member,
			setupMock: func(m *MockTaskRepository) {
				m.On("Update", mock.Anything, taskID, mock.Anything).Return(nil, rep.ErrNotFound)
			},
			wantCode: service.CodeNotFound,
		},
		{
			name:      "error - anonymous",
			identity:  nil,
			setupMock: func(m *MockTaskRepository) {},
			wantCode:  service.CodeUnauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)

			svc := service.NewTaskService(mockRepo, policy.Policy{})
			got, err := svc.UpdateTask(ctx, tt.identity, taskID, task.WithTitle(&title))

			if tt.wantCode != "" {
				assertBusinessCode(t, err, tt.wantCode)
			} else {
				require.NoError(t, err)
				assert.Equal(t, title, *got.Title)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTaskService_DeleteTask(t *testing.T) {
	ctx := context.Background()
	taskID := uuid.New()

	tests := []struct {
		name      string
		identity  *user.Identity
		setupMock func(*MockTaskRepository)
		wantCode  string
		plainErr  bool
	}{
		{
			name:     "success - staff deletes",
			identity: staff,
			setupMock: func(m *MockTaskRepository) {
				m.On("Delete", mock.Anything, taskID).Return(nil)
			},
		},
		{
			name:      "error - member forbidden",
			identity:  member,
			setupMock: func(m *MockTaskRepository) {},
			wantCode:  service.CodeForbidden,
		},
		{
			name:      "error - anonymous",
			identity:  nil,
			setupMock: func(m *MockTaskRepository) {},
			wantCode:  service.CodeUnauthenticated,
		},
		{
			name:     "error - missing task",
			identity: staff,
			setupMock: func(m *MockTaskRepository) {
				m.On("Delete", mock.Anything, taskID).Return(rep.ErrNotFound)
			},
			wantCode: service.CodeNotFound,
		},
		{
			name:     "error - storage failure",
			identity: staff,
			setupMock: func(m *MockTaskRepository) {
				m.On("Delete", mock.Anything, taskID).Return(errors.New("connection reset"))
			},
			plainErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)

			svc := service.NewTaskService(mockRepo, policy.Policy{})
			err := svc.DeleteTask(ctx, tt.identity, taskID)

			switch {
			case tt.wantCode != "":
				assertBusinessCode(t, err, tt.wantCode)
			case tt.plainErr:
				require.Error(t, err)
				var busErr *service.BusinessError
				assert.False(t, errors.As(err, &busErr))
			default:
				assert.NoError(t, err)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTaskService_FilterTasks(t *testing.T) {
	ctx := context.Background()
	completed := true

	tests := []struct {
		name       string
		raw        string
		pageSize   int
		pageNumber int
		setupMock  func(*MockTaskRepository)
		wantCode   string
	}{
		{
			name:       "success - completed filter",
			raw:        "True",
			pageSize:   2,
			pageNumber: 1,
			setupMock: func(m *MockTaskRepository) {
				m.On("List", mock.Anything, rep.ListParams{Completed: &completed, PageSize: 2, PageNumber: 1}).
					Return(rep.Page{TotalItems: 1, TotalPages: 1, CurrentPage: 1, PageSize: 2, Items: []*task.Task{}}, nil)
			},
		},
		{
			name:       "success - null disables filter",
			raw:        "null",
			pageSize:   10,
			pageNumber: 1,
			setupMock: func(m *MockTaskRepository) {
				m.On("List", mock.Anything, rep.ListParams{PageSize: 10, PageNumber: 1}).
					Return(rep.Page{TotalPages: 1, CurrentPage: 1, PageSize: 10, Items: []*task.Task{}}, nil)
			},
		},
		{
			name:       "error - page out of range",
			raw:        "false",
			pageSize:   10,
			pageNumber: 5,
			setupMock: func(m *MockTaskRepository) {
				m.On("List", mock.Anything, mock.Anything).Return(rep.Page{}, rep.ErrInvalidPage)
			},
			wantCode: service.CodeInvalidPage,
		},
		{
			name:       "error - bad page size",
			raw:        "false",
			pageSize:   0,
			pageNumber: 1,
			setupMock: func(m *MockTaskRepository) {
				m.On("List", mock.Anything, mock.Anything).Return(rep.Page{}, rep.ErrInvalidPageSize)
			},
			wantCode: service.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)

			svc := service.NewTaskService(mockRepo, policy.Policy{})
			_, err := svc.FilterTasks(ctx, member, tt.raw, tt.pageSize, tt.pageNumber)

			if tt.wantCode != "" {
				assertBusinessCode(t, err, tt.wantCode)
			} else {
				assert.NoError(t, err)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestParseCompletedFilter(t *testing.T) {
	tests := []struct {
		raw  string
		want *bool
	}{
		{"true", boolPtr(true)},
		{"TRUE", boolPtr(true)},
		{"1", boolPtr(true)},
		{"false", boolPtr(false)},
		{"0", boolPtr(false)},
		{"yes", boolPtr(false)},
		{"", boolPtr(false)},
		{"null", nil},
		{"NULL", nil},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, service.ParseCompletedFilter(tt.raw))
		})
	}
}

func boolPtr(b bool) *bool { return &b }

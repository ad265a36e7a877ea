package inmemory

import (
	"context"
	"slices"
	"sync"
	"time"

	"taskapi/internal/logger"
	"taskapi/internal/models/task"
	repo "taskapi/internal/repository"

	"github.com/google/uuid"
)

type TaskStorage struct {
	storage map[uuid.UUID]*task.Task
	mtx     *sync.RWMutex
	ids     []uuid.UUID
	now     func() time.Time
}

type Option func(*TaskStorage)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(s *TaskStorage) {
		s.now = now
	}
}

func NewTaskStorage(options ...Option) *TaskStorage {
	s := &TaskStorage{
		storage: make(map[uuid.UUID]*task.Task),
		mtx:     &sync.RWMutex{},
		ids:     []uuid.UUID{},
		now:     time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	logger.Info("Repository: Соединение стабильно")
	return nil
}

func (s *TaskStorage) Insert(ctx context.Context, options ...task.TaskOption) (*task.Task, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	created := task.New(s.now(), options...)

	s.storage[created.UUID] = created
	s.ids = append(s.ids, created.UUID)
	return created.Clone(), nil
}

func (s *TaskStorage) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	taskToGet, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return taskToGet.Clone(), nil
}

// частичное обновление: применяются только переданные опции
func (s *TaskStorage) Update(ctx context.Context, id uuid.UUID, options ...task.TaskOption) (*task.Task, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existing, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}

	updated := existing.Clone()
	task.Apply(updated, options...)
	updated.UUID = existing.UUID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = task.Touch(existing.UpdatedAt, s.now())

	s.storage[id] = updated
	return updated.Clone(), nil
}

func (s *TaskStorage) Delete(ctx context.Context, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[id]; !ok {
		return repo.ErrNotFound
	}

	delete(s.storage, id)
	s.ids = slices.DeleteFunc(s.ids, func(val uuid.UUID) bool { return val == id })
	return nil
}

func (s *TaskStorage) ListAll(ctx context.Context) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.sorted(nil), nil
}

// выборка с фильтром по completed и пагинацией, порядок по created_at
func (s *TaskStorage) List(ctx context.Context, params repo.ListParams) (repo.Page, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	tasks := s.sorted(params.Completed)

	pagination, err := repo.Paginate(len(tasks), params.PageSize, params.PageNumber)
	if err != nil {
		return repo.Page{}, err
	}

	return pagination.PageOf(tasks[pagination.Offset:pagination.End(len(tasks))], params), nil
}

func (s *TaskStorage) sorted(completed *bool) []*task.Task {
	res := make([]*task.Task, 0, len(s.ids))
	for _, id := range s.ids {
		t := s.storage[id]
		if completed != nil && t.Completed != *completed {
			continue
		}
		res = append(res, t.Clone())
	}

	// при равном created_at сохраняется порядок вставки
	slices.SortStableFunc(res, func(a, b *task.Task) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return res
}

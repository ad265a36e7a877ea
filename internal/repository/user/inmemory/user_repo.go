package inmemory

import (
	"context"
	"sync"

	"taskapi/internal/models/user"
	repo "taskapi/internal/repository"
)

type UserStorage struct {
	mtx        sync.RWMutex
	byUsername map[string]*user.User
}

func NewUserStorage() *UserStorage {
	return &UserStorage{
		byUsername: make(map[string]*user.User),
	}
}

func (s *UserStorage) HealthCheck(ctx context.Context) error {
	return nil
}

func (s *UserStorage) Create(ctx context.Context, u *user.User) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, exists := s.byUsername[u.Username]; exists {
		return repo.ErrAlreadyExists
	}

	stored := *u
	s.byUsername[u.Username] = &stored
	return nil
}

func (s *UserStorage) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	u, ok := s.byUsername[username]
	if !ok {
		return nil, repo.ErrNotFound
	}
	found := *u
	return &found, nil
}

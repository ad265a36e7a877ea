package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskapi/internal/logger"
	"taskapi/internal/models/task"
	repo "taskapi/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const slowQuery = 100 * time.Millisecond

const taskColumns = `uuid, title, description, completed, created_at, updated_at`

type Storage struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	logger.Info("Repository: Соединение стабильно")
	return nil
}

func (s *Storage) Insert(ctx context.Context, options ...task.TaskOption) (*task.Task, error) {
	start := time.Now()
	created := task.New(start, options...)

	query := `INSERT INTO tasks (` + taskColumns + `)
				VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.pool.Exec(ctx, query,
		created.UUID,
		created.Title,
		created.Description,
		created.Completed,
		created.CreatedAt,
		created.UpdatedAt,
	)
	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("добавление задачи: %w", err)
	}

	warnIfSlow(start)
	return created, nil
}

func (s *Storage) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	start := time.Now()

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE uuid = $1`

	rows, _ := s.pool.Query(ctx, query, id)
	found, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[task.Task])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	warnIfSlow(start)
	return normalize(found), nil
}

// обновление под блокировкой строки: читаем, применяем опции, записываем
func (s *Storage) Update(ctx context.Context, id uuid.UUID, options ...task.TaskOption) (*task.Task, error) {
	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, _ := tx.Query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE uuid = $1 FOR UPDATE`, id)
	existing, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[task.Task])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err)
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	existing = normalize(existing)

	updated := existing.Clone()
	task.Apply(updated, options...)
	updated.UUID = existing.UUID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = task.Touch(existing.UpdatedAt, time.Now())

	query := `UPDATE tasks
			SET title = $1,
				description = $2,
				completed = $3,
				updated_at = $4
			WHERE uuid = $5`

	if _, err := tx.Exec(ctx, query,
		updated.Title,
		updated.Description,
		updated.Completed,
		updated.UpdatedAt,
		updated.UUID,
	); err != nil {
		logger.Error("Repository: Не удалось обновить задачу", err)
		return nil, fmt.Errorf("обновление задачи: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("фиксация транзакции: %w", err)
	}

	warnIfSlow(start)
	return updated, nil
}

func (s *Storage) Delete(ctx context.Context, id uuid.UUID) error {
	start := time.Now()

	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE uuid = $1`, id)
	if err != nil {
		logger.Error("Repository: Удаление задачи", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	warnIfSlow(start)
	return nil
}

func (s *Storage) ListAll(ctx context.Context) ([]*task.Task, error) {
	start := time.Now()

	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY created_at, uuid`

	tasks, err := s.collect(ctx, s.pool, query)
	if err != nil {
		return nil, err
	}

	warnIfSlow(start)
	return tasks, nil
}

// выборка с фильтром по completed и пагинацией
func (s *Storage) List(ctx context.Context, params repo.ListParams) (repo.Page, error) {
	start := time.Now()

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return repo.Page{}, fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	// $1 IS NULL - без фильтра по completed
	where := `WHERE ($1::boolean IS NULL OR completed = $1)`

	var total int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM tasks `+where, params.Completed).Scan(&total); err != nil {
		logger.Error("Repository: Не удалось посчитать задачи", err)
		return repo.Page{}, fmt.Errorf("подсчёт задач: %w", err)
	}

	pagination, err := repo.Paginate(total, params.PageSize, params.PageNumber)
	if err != nil {
		return repo.Page{}, err
	}

	query := `SELECT ` + taskColumns + ` FROM tasks ` + where + `
				ORDER BY created_at, uuid
				LIMIT $2 OFFSET $3`

	tasks, err := s.collect(ctx, tx, query, params.Completed, pagination.Limit, pagination.Offset)
	if err != nil {
		return repo.Page{}, err
	}

	if time.Since(start) > slowQuery+time.Millisecond*time.Duration(len(tasks)) {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return pagination.PageOf(tasks, params), nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (s *Storage) collect(ctx context.Context, q querier, query string, args ...any) ([]*task.Task, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err)
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	tasks, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[task.Task])
	if err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	for i := range tasks {
		tasks[i] = normalize(tasks[i])
	}
	if tasks == nil {
		tasks = []*task.Task{}
	}
	return tasks, nil
}

func normalize(t *task.Task) *task.Task {
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t
}

func warnIfSlow(start time.Time) {
	if time.Since(start) > slowQuery {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
}

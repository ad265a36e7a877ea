package postgres_test

import (
	"context"
	"testing"

	"taskapi/internal/config"
	"taskapi/internal/migrations"
	pgpool "taskapi/internal/repository/postgres"
	"taskapi/internal/repository/postgres/pgtest"
	"taskapi/internal/repository/task/postgres"
	"taskapi/internal/repository/task/storetest"
	"taskapi/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// PostgresTestSuite для интеграционных тестов с PostgreSQL
type PostgresTestSuite struct {
	suite.Suite
	container *pgtest.Container
	pool      *pgxpool.Pool
	ctx       context.Context
}

// SetupSuite запускается один раз перед всеми тестами
func (s *PostgresTestSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := pgtest.Start(s.ctx)
	require.NoError(s.T(), err)
	s.container = container

	require.NoError(s.T(), migrations.Up(container.URL))

	s.pool, err = pgpool.Connect(s.ctx, config.DatabaseConfig{URL: container.URL})
	require.NoError(s.T(), err)
}

// TearDownSuite очищает после всех тестов
func (s *PostgresTestSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresTestSuite) newStorage(t *testing.T) service.TaskRepository {
	require.NoError(t, s.container.Truncate(s.ctx, "tasks"))
	return postgres.New(s.pool)
}

func (s *PostgresTestSuite) TestContract() {
	storetest.RunTaskRepository(s.T(), s.newStorage)
}

func (s *PostgresTestSuite) TestHealthCheck() {
	storage := postgres.New(s.pool)
	s.NoError(storage.HealthCheck(s.ctx))
}

func (s *PostgresTestSuite) TestMigrationsAreIdempotent() {
	s.NoError(migrations.Up(s.container.URL))
}

func TestPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("интеграционные тесты пропущены в режиме -short")
	}
	suite.Run(t, new(PostgresTestSuite))
}

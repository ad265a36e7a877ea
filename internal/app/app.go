package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"taskapi/internal/auth"
	"taskapi/internal/config"
	"taskapi/internal/handlers"
	"taskapi/internal/logger"
	"taskapi/internal/middleware"
	"taskapi/internal/migrations"
	"taskapi/internal/policy"
	pgpool "taskapi/internal/repository/postgres"
	sqlitedb "taskapi/internal/repository/sqlite"
	taskmem "taskapi/internal/repository/task/inmemory"
	taskpg "taskapi/internal/repository/task/postgres"
	tasksqlite "taskapi/internal/repository/task/sqlite"
	usermem "taskapi/internal/repository/user/inmemory"
	userpg "taskapi/internal/repository/user/postgres"
	usersqlite "taskapi/internal/repository/user/sqlite"
	"taskapi/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const readHeaderTimeout = 10 * time.Second

type App struct {
	config    *config.Config
	server    *http.Server
	handler   http.Handler
	tasks     service.TaskRepository
	users     service.UserRepository
	shutdowns []func() error // закрытие хранилищ
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func() error, 0),
	}
}

// Init поднимает хранилища, сервисы и роутер. Логгер должен быть
// инициализирован до вызова.
func (a *App) Init(ctx context.Context) error {
	if err := a.initStorage(ctx); err != nil {
		return err
	}

	tokens := auth.NewTokenService(auth.TokenConfig{
		SecretKey:  a.config.Auth.Secret,
		Issuer:     a.config.Auth.Issuer,
		AccessTTL:  a.config.Auth.AccessTTL,
		RefreshTTL: a.config.Auth.RefreshTTL,
	})

	taskService := service.NewTaskService(a.tasks, policy.Policy{
		RequireAuthForCreate: a.config.Auth.RequireAuthForCreate,
	})
	authService := service.NewAuthService(a.users, auth.NewPasswordHasher(a.config.Auth.BcryptCost), tokens)

	a.handler = otelhttp.NewHandler(
		a.routes(
			handlers.NewTaskHandler(taskService),
			handlers.NewAuthHandler(authService),
			handlers.NewHealthHandler(map[string]handlers.HealthChecker{
				"tasks": taskService,
				"users": authService,
			}),
			tokens,
		),
		"task-api",
	)

	a.server = &http.Server{
		Addr:              a.config.GetServerAddr(),
		Handler:           a.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return nil
}

func (a *App) initStorage(ctx context.Context) error {
	switch a.config.Repository.Type {
	case config.RepositoryPostgres:
		if a.config.Database.Migrate {
			if err := migrations.Up(a.config.Database.URL); err != nil {
				return fmt.Errorf("миграции: %w", err)
			}
		}

		pool, err := pgpool.Connect(ctx, a.config.Database)
		if err != nil {
			return err
		}
		a.shutdowns = append(a.shutdowns, func() error {
			logger.Info("Закрытие пула PostgreSQL...")
			pool.Close()
			return nil
		})
		a.tasks = taskpg.New(pool)
		a.users = userpg.New(pool)

	case config.RepositorySQLite:
		db, err := sqlitedb.Open(a.config.Database.SQLitePath)
		if err != nil {
			return err
		}
		a.shutdowns = append(a.shutdowns, func() error {
			logger.Info("Закрытие SQLite...")
			return sqlitedb.Close(db)
		})

		tasks, err := tasksqlite.New(db)
		if err != nil {
			return err
		}
		users, err := usersqlite.New(db)
		if err != nil {
			return err
		}
		a.tasks, a.users = tasks, users

	default:
		a.tasks = taskmem.NewTaskStorage()
		a.users = usermem.NewUserStorage()
	}

	logger.Info("Хранилище инициализировано", zap.String("type", a.config.Repository.Type))
	return nil
}

func (a *App) routes(tasks *handlers.TaskHandler, users *handlers.AuthHandler, health *handlers.HealthHandler, tokens middleware.TokenVerifier) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Authenticate(tokens))
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.config.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", health.HealthCheck)

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", tasks.ListTasks)   // GET /tasks/
		r.Post("/", tasks.CreateTask) // POST /tasks/

		r.Get("/{id}/", tasks.GetTask)       // GET /tasks/{id}/
		r.Put("/{id}/", tasks.UpdateTask)    // PUT /tasks/{id}/
		r.Delete("/{id}/", tasks.DeleteTask) // DELETE /tasks/{id}/
	})

	filter := "/{completed}/{page_size:[0-9]+}/{page_number:[0-9]+}/"
	r.Get("/tasks-filter"+filter, tasks.FilterTasks)
	r.Get("/taskfilterbycompleted"+filter, tasks.FilterTasks)

	r.Post("/register/", users.Register)
	r.Post("/login/", users.Login)
	r.Post("/token-refresh/", users.RefreshToken)
	r.Post("/tokenrefresh/", users.RefreshToken)

	return r
}

// Handler отдаёт корневой http.Handler, в тестах без запуска сервера.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run блокирует до остановки сервера через Stop.
func (a *App) Run() error {
	logger.Info("Сервер запущен", zap.String("addr", a.server.Addr))

	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("сервер: %w", err)
	}
	return nil
}

// Stop дожидается завершения текущих запросов и закрывает хранилища.
func (a *App) Stop(ctx context.Context) error {
	var errs []error

	if a.server != nil {
		logger.Info("Остановка HTTP сервера...")
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("остановка сервера: %w", err))
		}
	}

	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		if err := a.shutdowns[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

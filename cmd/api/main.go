package main

import (
	"context"
	"fmt"
	"os"

	"taskapi/internal/app"
	"taskapi/internal/config"
	"taskapi/internal/logger"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"go.uber.org/zap"
)

const configPath = "config.yml"

func main() {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "конфигурация: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Development); err != nil {
		fmt.Fprintf(os.Stderr, "инициализация логгера: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	application := app.New(cfg)
	if err := application.Init(context.Background()); err != nil {
		logger.Error("Ошибка инициализации приложения", err)
		logger.Sync()
		os.Exit(1)
	}

	go func() {
		if err := application.Run(); err != nil {
			logger.Error("Сервер остановлен с ошибкой", err)
			logger.Sync()
			os.Exit(1)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.Server.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"task-api": func(ctx context.Context) error {
				logger.Info("Получен сигнал завершения, останавливаемся...")
				return application.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	logger.Info("Приложение завершено", zap.Int("exit_code", exitCode))
	logger.Sync()
	os.Exit(exitCode)
}

package sqlite

import (
	"fmt"

	"taskapi/internal/logger"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open открывает базу SQLite через GORM. SQLite не допускает параллельной
// записи, поэтому пул ограничен одним соединением; это же позволяет
// использовать ":memory:" в тестах.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		logger.Error("Repository: Не удалось открыть SQLite", err, zap.String("path", path))
		return nil, fmt.Errorf("открытие sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("получение sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	logger.Info("Repository: Успешное подключение к SQLite", zap.String("path", path))
	return db, nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	logger.Info("Repository: Закрытие соединения SQLite")
	return sqlDB.Close()
}

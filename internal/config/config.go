// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	RepositoryInMemory = "inmemory"
	RepositoryPostgres = "postgres"
	RepositorySQLite   = "sqlite"
)

// EnvPrefix задаёт префикс переменных окружения, перекрывающих config.yml.
const EnvPrefix = "TASKAPI"

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Logging    LoggingConfig    `yaml:"logging"`
	Repository RepositoryConfig `yaml:"repository"`
	Auth       AuthConfig       `yaml:"auth"`
	CORS       CORSConfig       `yaml:"cors"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	Host            string        `yaml:"host"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL            string        `yaml:"url"`
	SQLitePath     string        `yaml:"sqlite_path"`
	MaxConnections int           `yaml:"max_connections"`
	MinConnections int           `yaml:"min_connections"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	Migrate        bool          `yaml:"migrate"`
}

type LoggingConfig struct {
	Development bool `yaml:"development"`
}

type RepositoryConfig struct {
	Type string `yaml:"type"` // "inmemory", "postgres" или "sqlite"
}

type AuthConfig struct {
	Secret               string        `yaml:"secret"`
	Issuer               string        `yaml:"issuer"`
	AccessTTL            time.Duration `yaml:"access_ttl"`
	RefreshTTL           time.Duration `yaml:"refresh_ttl"`
	BcryptCost           int           `yaml:"bcrypt_cost"`
	RequireAuthForCreate bool          `yaml:"require_auth_for_create"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "",
			Port:            "8080",
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			SQLitePath:     "tasks.db",
			MaxConnections: 10,
			MinConnections: 2,
			IdleTimeout:    5 * time.Minute,
			Migrate:        true,
		},
		Logging:    LoggingConfig{Development: true},
		Repository: RepositoryConfig{Type: RepositoryInMemory},
		Auth: AuthConfig{
			Issuer:     "task-api",
			AccessTTL:  5 * time.Minute,
			RefreshTTL: 24 * time.Hour,
			BcryptCost: 12,
		},
		CORS: CORSConfig{AllowedOrigins: []string{"*"}},
	}
}

// Load читает YAML-файл поверх значений по умолчанию и применяет
// переменные окружения TASKAPI_*. Отсутствующий файл не считается ошибкой.
func Load(path string) (*Config, error) {
	cfg := Default()

	file, err := os.Open(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("не могу открыть %s: %w", path, err)
	default:
		defer file.Close()
		decoder := yaml.NewDecoder(file)
		if err := decoder.Decode(cfg); err != nil {
			return nil, fmt.Errorf("ошибка парсинга %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	env := viper.New()
	env.SetEnvPrefix(EnvPrefix)
	env.AutomaticEnv()

	if v := env.GetString("jwt_secret"); v != "" {
		c.Auth.Secret = v
	}
	if v := env.GetString("database_url"); v != "" {
		c.Database.URL = v
	}
	if v := env.GetString("repository_type"); v != "" {
		c.Repository.Type = v
	}
	if v := env.GetString("server_port"); v != "" {
		c.Server.Port = v
	}
	if env.GetString("log_development") != "" {
		c.Logging.Development = env.GetBool("log_development")
	}
}

func (c *Config) Validate() error {
	if c.Auth.Secret == "" {
		return errors.New("auth.secret не задан (или TASKAPI_JWT_SECRET)")
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		return errors.New("auth.access_ttl и auth.refresh_ttl должны быть положительными")
	}
	switch c.Repository.Type {
	case RepositoryInMemory, RepositorySQLite:
	case RepositoryPostgres:
		if c.Database.URL == "" {
			return errors.New("database.url обязателен для postgres")
		}
	default:
		return fmt.Errorf("неизвестный тип репозитория %q", c.Repository.Type)
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

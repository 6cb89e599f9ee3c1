package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type Config struct {
	HTTP     HTTPConfig
	DB       DBConfig
	Log      LogConfig
	Sessions SessionConfig
	Admin    AdminConfig
}

type HTTPConfig struct {
	Port         string        `env:"PORT" env-default:"8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	SecureCookie bool          `env:"SECURE_COOKIE" env-default:"false"`
}

type DBConfig struct {
	Path string `env:"DB_PATH" env-default:"transactions.db"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"console"` // console | json
}

type SessionConfig struct {
	Duration        time.Duration `env:"SESSION_DURATION" env-default:"720h"`
	CleanupSchedule string        `env:"SESSION_CLEANUP_SCHEDULE" env-default:"@hourly"`
}

// AdminConfig seeds the first account on an empty database.
type AdminConfig struct {
	User     string `env:"ADMIN_USER"`
	Password string `env:"ADMIN_PASSWORD"`
}

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	return cfg, nil
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.HTTP.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port %q: must be a number", c.HTTP.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.DB.Path == "" {
		problems = append(problems, "database path cannot be empty")
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, fmt.Sprintf("invalid log level %q", c.Log.Level))
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		problems = append(problems, fmt.Sprintf("invalid log format %q: must be console or json", c.Log.Format))
	}

	if c.Sessions.Duration < time.Minute {
		problems = append(problems, fmt.Sprintf("invalid session duration %v: must be at least 1m", c.Sessions.Duration))
	}
	if _, err := cron.ParseStandard(c.Sessions.CleanupSchedule); err != nil {
		problems = append(problems, fmt.Sprintf("invalid session cleanup schedule %q: %v", c.Sessions.CleanupSchedule, err))
	}

	if (c.Admin.User == "") != (c.Admin.Password == "") {
		problems = append(problems, "ADMIN_USER and ADMIN_PASSWORD must be set together")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

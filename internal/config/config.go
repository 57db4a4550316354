package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"false"`

	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
	DBConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"1m"`

	DefaultMaxRounds int      `env:"DEFAULT_MAX_ROUNDS" envDefault:"2"`
	DefaultTimeLimit int      `env:"DEFAULT_TIME_LIMIT" envDefault:"0"`
	Palette          []string `env:"COLOR_PALETTE" envSeparator:"," envDefault:"#ff6b6b,#4dabf7,#51cf66,#ffa94d,#ffd43b,#845ef7,#20c997,#e64980"`

	RoomTTL        time.Duration `env:"ROOM_TTL" envDefault:"1h"`
	SweepInterval  time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
	CommandTimeout time.Duration `env:"COMMAND_TIMEOUT" envDefault:"5s"`

	StoreTimeout     time.Duration `env:"STORE_TIMEOUT" envDefault:"3s"`
	StoreRetries     int           `env:"STORE_RETRIES" envDefault:"3"`
	PersistQueueSize int           `env:"PERSIST_QUEUE_SIZE" envDefault:"1024"`
	PersistWorkers   int           `env:"PERSIST_WORKERS" envDefault:"4"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	AllowedOrigins     []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	HTTPRateLimit      int      `env:"HTTP_RATE_LIMIT" envDefault:"120"`
	ClientCommandRate  float64  `env:"CLIENT_COMMAND_RATE" envDefault:"20"`
	ClientCommandBurst int      `env:"CLIENT_COMMAND_BURST" envDefault:"40"`
}

// Default returns the configuration used when no variables are set.
func Default() Config {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Environment: map[string]string{}})
	if err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return cfg
}

// Load parses the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

func parse(opts env.Options) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	positive := []struct {
		name  string
		value int
	}{
		{"PORT", c.Port},
		{"DB_MAX_OPEN_CONNS", c.DBMaxOpenConns},
		{"DEFAULT_MAX_ROUNDS", c.DefaultMaxRounds},
		{"PERSIST_QUEUE_SIZE", c.PersistQueueSize},
		{"PERSIST_WORKERS", c.PersistWorkers},
		{"HTTP_RATE_LIMIT", c.HTTPRateLimit},
		{"CLIENT_COMMAND_BURST", c.ClientCommandBurst},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", p.name, p.value))
		}
	}
	if c.DefaultTimeLimit < 0 {
		errs = append(errs, fmt.Errorf("DEFAULT_TIME_LIMIT must not be negative, got %d", c.DefaultTimeLimit))
	}
	if c.StoreRetries < 0 {
		errs = append(errs, fmt.Errorf("STORE_RETRIES must not be negative, got %d", c.StoreRetries))
	}
	if c.ClientCommandRate <= 0 {
		errs = append(errs, fmt.Errorf("CLIENT_COMMAND_RATE must be positive, got %v", c.ClientCommandRate))
	}
	if len(c.Palette) == 0 {
		errs = append(errs, errors.New("COLOR_PALETTE must name at least one color"))
	}
	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"ROOM_TTL", c.RoomTTL},
		{"SWEEP_INTERVAL", c.SweepInterval},
		{"COMMAND_TIMEOUT", c.CommandTimeout},
		{"STORE_TIMEOUT", c.StoreTimeout},
	} {
		if d.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", d.name, d.value))
		}
	}
	return errors.Join(errs...)
}

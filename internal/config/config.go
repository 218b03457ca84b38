package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Skotchmaster/handmade_market/internal/models"
)

type Config struct {
	Port          int           `env:"PORT" envDefault:"8080"`
	Debug         bool          `env:"DEBUG" envDefault:"false"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL   string        `env:"DATABASE_URL"`
	JWTSecret     string        `env:"JWT_SECRET"`
	RefreshSecret string        `env:"REFRESH_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"2h"`
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	KafkaAddress  string        `env:"KAFKA_ADDRESS"`
	ESURL         string        `env:"ES_URL"`
	ESUser        string        `env:"ES_USER"`
	ESPassword    string        `env:"ES_PASSWORD"`
}

// Load reads .env if present and parses the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// InitDB opens the relational store and runs migrations. Postgres is used
// when DATABASE_URL is set; otherwise a local sqlite file keeps the app
// runnable with zero configuration.
func InitDB(cfg *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if cfg.DatabaseURL != "" {
		dialector = postgres.Open(cfg.DatabaseURL)
	} else {
		dialector = sqlite.Open("handmade_market.db")
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

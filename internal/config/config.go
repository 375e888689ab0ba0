package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken      string
	AdminTelegramToken string
	DBDriver           string
	DBDSN              string
	DBPath             string
	SettingsPath       string
	Environment        string
	LogPath            string
	AdminIDs           []int64
	AdminPINHash       string
	RedisAddr          string
	AMQPURL            string
	HTTPAddr           string
	ExportSecret       string
	PublicURL          string
	SessionTTL         time.Duration
	ExportDays         int
}

// Load читает конфигурацию из .env и переменных окружения
func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		TelegramToken:      os.Getenv("TELEGRAM_TOKEN"),
		AdminTelegramToken: os.Getenv("ADMIN_TELEGRAM_TOKEN"),
		DBDriver:           getEnv("DB_DRIVER", "sqlite3"),
		DBDSN:              os.Getenv("DB_DSN"),
		DBPath:             getEnv("DB_PATH", "data/bookings.db"),
		SettingsPath:       getEnv("SETTINGS_PATH", "data/settings.json"),
		Environment:        getEnv("ENV", "development"),
		LogPath:            os.Getenv("LOG_PATH"),
		AdminPINHash:       os.Getenv("ADMIN_PIN_HASH"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		AMQPURL:            os.Getenv("AMQP_URL"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		ExportSecret:       os.Getenv("EXPORT_SECRET"),
		PublicURL:          getEnv("PUBLIC_URL", "http://localhost:8080"),
	}

	var err error
	if cfg.SessionTTL, err = time.ParseDuration(getEnv("SESSION_TTL", "30m")); err != nil {
		return nil, fmt.Errorf("parse SESSION_TTL: %w", err)
	}
	if cfg.ExportDays, err = strconv.Atoi(getEnv("EXPORT_DAYS", "30")); err != nil {
		return nil, fmt.Errorf("parse EXPORT_DAYS: %w", err)
	}
	if cfg.AdminIDs, err = parseIDs(os.Getenv("ADMIN_IDS")); err != nil {
		return nil, fmt.Errorf("parse ADMIN_IDS: %w", err)
	}

	// Проверяем обязательные поля
	switch cfg.DBDriver {
	case "sqlite3":
	case "postgres":
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("DB_DSN is required for postgres driver")
		}
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}

	return cfg, nil
}

// RequireClientBot проверяет поля, нужные клиентскому боту
func (c *Config) RequireClientBot() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required but not set")
	}
	return nil
}

// RequireAdminBot проверяет поля, нужные админ-боту
func (c *Config) RequireAdminBot() error {
	if c.AdminTelegramToken == "" {
		return fmt.Errorf("ADMIN_TELEGRAM_TOKEN is required but not set")
	}
	if c.AdminPINHash == "" {
		return fmt.Errorf("ADMIN_PIN_HASH is required but not set")
	}
	if c.ExportSecret == "" {
		return fmt.Errorf("EXPORT_SECRET is required but not set")
	}
	return nil
}

// IsAdmin проверяет, есть ли пользователь в списке администраторов.
// Пустой список пускает всех, дальше решает PIN.
func (c *Config) IsAdmin(telegramID int64) bool {
	if len(c.AdminIDs) == 0 {
		return true
	}
	for _, id := range c.AdminIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

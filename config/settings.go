package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSqlite = "sqlite"
	DriverMysql  = "mysql"
)

// Settings is built once at startup and handed to every component that needs it.
// Nothing writes to it afterwards.
type Settings struct {
	DBDriver           string
	DBPath             string
	DBUser             string
	DBPassword         string
	DBHost             string
	DBPort             string
	DBName             string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    time.Duration
	OrderNumberPrefix  string
	RaNumberPrefix     string
	RedisAddress       string
	LogLevel           string
	Port               string
	CorsAllowedOrigins []string
	Production         bool
	SkipMigrations     bool
	RateLimitEnabled   bool
	RateLimitMax       int
	RateLimitWindow    time.Duration

	// warnings collected while parsing, reported once a logger exists
	Warnings []string
}

// LoadSettings reads .env (when present) and the process environment.
func LoadSettings() *Settings {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	s := &Settings{
		DBDriver:          strings.ToLower(stringFromEnv("DB_DRIVER", DriverSqlite)),
		DBPath:            stringFromEnv("DB_PATH", "wired_part.db"),
		DBUser:            os.Getenv("DB_USER"),
		DBPassword:        os.Getenv("DB_PASSWORD"),
		DBHost:            stringFromEnv("DB_HOST", "127.0.0.1"),
		DBPort:            stringFromEnv("DB_PORT", "3306"),
		DBName:            os.Getenv("DB_NAME"),
		OrderNumberPrefix: stringFromEnv("ORDER_NUMBER_PREFIX", "PO"),
		RaNumberPrefix:    stringFromEnv("RA_NUMBER_PREFIX", "RA"),
		RedisAddress:      strings.TrimSpace(os.Getenv("REDIS_ADDRESS")),
		LogLevel:          stringFromEnv("LOG_LEVEL", "info"),
		Port:              stringFromEnv("PORT", "8080"),
		Production:        strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production"),
	}
	s.CorsAllowedOrigins = splitAndTrim(os.Getenv("CORS_ALLOWED_ORIGINS"))
	s.MaxOpenConns = s.intFromEnv("DB_MAX_OPEN_CONNS", 25)
	s.MaxIdleConns = s.intFromEnv("DB_MAX_IDLE_CONNS", 10)
	s.ConnMaxLifetime = time.Duration(s.intFromEnv("DB_CONN_MAX_LIFETIME_SECONDS", 300)) * time.Second
	s.SkipMigrations = s.boolFromEnv("SKIP_MIGRATIONS", false)
	s.RateLimitEnabled = s.boolFromEnv("RATE_LIMIT_ENABLED", false)
	s.RateLimitMax = s.intFromEnv("RATE_LIMIT_MAX_REQUESTS", 600)
	s.RateLimitWindow = time.Duration(s.intFromEnv("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second

	if s.DBDriver != DriverSqlite && s.DBDriver != DriverMysql {
		s.Warnings = append(s.Warnings, fmt.Sprintf("unknown DB_DRIVER %q, using sqlite", s.DBDriver))
		s.DBDriver = DriverSqlite
	}
	return s
}

func stringFromEnv(key string, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func (s *Settings) intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		s.Warnings = append(s.Warnings, fmt.Sprintf("%s=%q is not an integer, using %d", key, v, def))
		return def
	}
	return n
}

func (s *Settings) boolFromEnv(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		s.Warnings = append(s.Warnings, fmt.Sprintf("%s=%q is not a boolean, using %t", key, v, def))
		return def
	}
	return b
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

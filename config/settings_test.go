package config

import (
	"testing"
	"time"
)

func TestLoadSettings_Defaults(t *testing.T) {
	for _, k := range []string{"DB_DRIVER", "DB_PATH", "ORDER_NUMBER_PREFIX", "RA_NUMBER_PREFIX", "REDIS_ADDRESS", "SKIP_MIGRATIONS", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(k, "")
	}
	s := LoadSettings()
	if s.DBDriver != DriverSqlite {
		t.Fatalf("expected sqlite driver, got %q", s.DBDriver)
	}
	if s.OrderNumberPrefix != "PO" || s.RaNumberPrefix != "RA" {
		t.Fatalf("unexpected prefixes %q %q", s.OrderNumberPrefix, s.RaNumberPrefix)
	}
	if s.RedisAddress != "" {
		t.Fatalf("expected no redis address, got %q", s.RedisAddress)
	}
	if s.SkipMigrations {
		t.Fatalf("expected migrations enabled by default")
	}
	if len(s.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", s.Warnings)
	}
}

func TestLoadSettings_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "MySQL")
	t.Setenv("ORDER_NUMBER_PREFIX", "ORD")
	t.Setenv("DB_CONN_MAX_LIFETIME_SECONDS", "60")
	t.Setenv("SKIP_MIGRATIONS", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	s := LoadSettings()
	if s.DBDriver != DriverMysql {
		t.Fatalf("expected mysql driver, got %q", s.DBDriver)
	}
	if s.OrderNumberPrefix != "ORD" {
		t.Fatalf("expected ORD prefix, got %q", s.OrderNumberPrefix)
	}
	if s.ConnMaxLifetime != time.Minute {
		t.Fatalf("expected 1m lifetime, got %s", s.ConnMaxLifetime)
	}
	if !s.SkipMigrations {
		t.Fatalf("expected SkipMigrations")
	}
	if len(s.CorsAllowedOrigins) != 2 || s.CorsAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", s.CorsAllowedOrigins)
	}
}

func TestLoadSettings_BadValuesFallBack(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_MAX_OPEN_CONNS", "many")
	t.Setenv("SKIP_MIGRATIONS", "maybe")

	s := LoadSettings()
	if s.DBDriver != DriverSqlite {
		t.Fatalf("expected fallback to sqlite, got %q", s.DBDriver)
	}
	if s.MaxOpenConns != 25 {
		t.Fatalf("expected default pool size, got %d", s.MaxOpenConns)
	}
	if s.SkipMigrations {
		t.Fatalf("expected default SkipMigrations=false")
	}
	if len(s.Warnings) != 3 {
		t.Fatalf("expected 3 warnings, got %v", s.Warnings)
	}
}

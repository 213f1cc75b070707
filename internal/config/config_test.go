package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("PROPERTY_CACHE_TTL", "")
	t.Setenv("PROPERTY_CACHE_SIZE", "")
	t.Setenv("WARM_CITIES", "")
	t.Setenv("TRANSLATE_TIMEOUT", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.PropertyCacheTTL != 30*time.Minute {
		t.Fatalf("expected 30m property cache ttl, got %s", cfg.PropertyCacheTTL)
	}
	if cfg.PropertyCacheSize != 64 {
		t.Fatalf("expected default cache size 64, got %d", cfg.PropertyCacheSize)
	}
	if cfg.TranslateTimeout != 10*time.Second {
		t.Fatalf("expected 10s translate timeout, got %s", cfg.TranslateTimeout)
	}
	if cfg.PropertyDedupMode != "id" {
		t.Fatalf("expected id dedup mode by default, got %s", cfg.PropertyDedupMode)
	}
	if len(cfg.WarmCities) != 3 || cfg.WarmCities[0] != "New-Delhi" {
		t.Fatalf("unexpected default warm cities %v", cfg.WarmCities)
	}
	if cfg.RateLimitRequests != 100 || cfg.RateLimitWindow != 15*time.Minute {
		t.Fatalf("unexpected rate limit defaults %d/%s", cfg.RateLimitRequests, cfg.RateLimitWindow)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("PROPERTY_CACHE_TTL", "5m")
	t.Setenv("PROPERTY_CACHE_SIZE", "8")
	t.Setenv("PROPERTY_CACHE_REDIS", "true")
	t.Setenv("PROPERTY_DEDUP_MODE", "Content")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("WARM_CITIES", "Pune")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected env override, got %s", cfg.Env)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected db override, got %s", cfg.DatabaseURL)
	}
	if cfg.PropertyCacheTTL != 5*time.Minute {
		t.Fatalf("expected ttl override, got %s", cfg.PropertyCacheTTL)
	}
	if cfg.PropertyCacheSize != 8 {
		t.Fatalf("expected cache size override, got %d", cfg.PropertyCacheSize)
	}
	if !cfg.PropertyCacheRedis {
		t.Fatalf("expected redis cache tier enabled")
	}
	if cfg.PropertyDedupMode != "content" {
		t.Fatalf("expected lowercased dedup mode, got %s", cfg.PropertyDedupMode)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
	if len(cfg.WarmCities) != 1 || cfg.WarmCities[0] != "Pune" {
		t.Fatalf("unexpected warm cities %v", cfg.WarmCities)
	}
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("JWT_TTL", "soon")
	cfg := Load()
	if cfg.JWTTTL != 24*time.Hour {
		t.Fatalf("expected default jwt ttl, got %s", cfg.JWTTTL)
	}
}

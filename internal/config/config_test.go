package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "LOG_LEVEL", "STORE_BACKEND", "CART_DISCOUNT_POLICY", "CORS_ALLOWED_ORIGINS", "SALON_TIMEZONE", "CALENDAR_TIMEOUT"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.StoreBackend != StoreMemory {
		t.Fatalf("expected memory store by default, got %s", cfg.StoreBackend)
	}
	if cfg.CartDiscountPolicy != "tiered" {
		t.Fatalf("expected tiered discount policy, got %s", cfg.CartDiscountPolicy)
	}
	if cfg.SalonTimezone != "America/Sao_Paulo" {
		t.Fatalf("expected Sao Paulo timezone, got %s", cfg.SalonTimezone)
	}
	if cfg.CalendarTimeout != 5*time.Second {
		t.Fatalf("expected 5s calendar timeout, got %s", cfg.CalendarTimeout)
	}
	if cfg.BookingHorizonDays != 62 {
		t.Fatalf("expected 62 day horizon, got %d", cfg.BookingHorizonDays)
	}
	if cfg.CORSAllowedOrigins != nil {
		t.Fatalf("expected no CORS origins, got %v", cfg.CORSAllowedOrigins)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("STORE_BACKEND", " Postgres ")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("BOOKING_HORIZON_DAYS", "30")
	t.Setenv("CART_TTL", "2h")
	t.Setenv("RATE_LIMIT_RPS", "0.5")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://salaobella.com.br, ,https://admin.salaobella.com.br")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.StoreBackend != StorePostgres {
		t.Fatalf("expected normalized postgres backend, got %q", cfg.StoreBackend)
	}
	if cfg.BookingHorizonDays != 30 {
		t.Fatalf("expected horizon override, got %d", cfg.BookingHorizonDays)
	}
	if cfg.CartTTL != 2*time.Hour {
		t.Fatalf("expected cart ttl override, got %s", cfg.CartTTL)
	}
	if cfg.RateLimitRPS != 0.5 {
		t.Fatalf("expected rate override, got %v", cfg.RateLimitRPS)
	}
	if !cfg.RedisTLS {
		t.Fatalf("expected redis tls enabled")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://admin.salaobella.com.br" {
		t.Fatalf("unexpected CORS origins %v", cfg.CORSAllowedOrigins)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("BOOKING_HORIZON_DAYS", "lots")
	t.Setenv("CALENDAR_TIMEOUT", "soon")
	cfg := Load()
	if cfg.BookingHorizonDays != 62 {
		t.Fatalf("expected default horizon, got %d", cfg.BookingHorizonDays)
	}
	if cfg.CalendarTimeout != 5*time.Second {
		t.Fatalf("expected default timeout, got %s", cfg.CalendarTimeout)
	}
}

func TestValidateRejectsBadCombinations(t *testing.T) {
	cfg := &Config{
		StoreBackend:       StorePostgres,
		CartDiscountPolicy: "bogus",
		SalonTimezone:      "UTC",
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("expected DATABASE_URL complaint, got %v", err)
	}
	if !strings.Contains(err.Error(), "CART_DISCOUNT_POLICY") {
		t.Fatalf("expected discount policy complaint, got %v", err)
	}

	cfg = &Config{StoreBackend: "dynamo", CartDiscountPolicy: "flat", SalonTimezone: "UTC"}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "STORE_BACKEND") {
		t.Fatalf("expected unknown backend error, got %v", err)
	}
}

func TestValidateRejectsMemoryStoreInProduction(t *testing.T) {
	cfg := &Config{
		Env:                "production",
		StoreBackend:       StoreMemory,
		CartDiscountPolicy: "tiered",
		SalonTimezone:      "UTC",
	}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "STORE_BACKEND") {
		t.Fatalf("expected memory store rejection, got %v", err)
	}

	cfg.Env = "development"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected memory store to be allowed outside production, got %v", err)
	}
}

package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadRequiresTokenSecret(t *testing.T) {
	if _, err := Load(); !errors.Is(err, ErrTokenSecretMissing) {
		t.Fatalf("expected ErrTokenSecretMissing, got %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STOREFRONT_AUTH_TOKEN_SECRET", "unit-test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.App.Port != 8080 {
		t.Errorf("app.port = %d, want 8080", cfg.App.Port)
	}
	if cfg.Auth.TokenTTL != 168*time.Hour {
		t.Errorf("auth.token_ttl = %v, want 168h", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.AllowUnsignedTokens {
		t.Error("auth.allow_unsigned_tokens must default to false")
	}
	if len(cfg.Auth.AllowedAlgorithms) == 0 {
		t.Error("auth.allowed_algorithms must have a default allow-list")
	}
	if cfg.Kafka.TopicPrefix != "storefront.identity" {
		t.Errorf("kafka.topic_prefix = %q", cfg.Kafka.TopicPrefix)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("STOREFRONT_AUTH_TOKEN_SECRET", "unit-test-secret")
	t.Setenv("STOREFRONT_AUTH_TOKEN_TTL", "24h")
	t.Setenv("STOREFRONT_AUTH_ALLOW_UNSIGNED_TOKENS", "true")
	t.Setenv("STOREFRONT_POSTGRES_DATABASE", "identity_test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("auth.token_ttl = %v, want 24h", cfg.Auth.TokenTTL)
	}
	if !cfg.Auth.AllowUnsignedTokens {
		t.Error("auth.allow_unsigned_tokens should be overridable")
	}
	if cfg.Postgres.Database != "identity_test" {
		t.Errorf("postgres.database = %q", cfg.Postgres.Database)
	}
}

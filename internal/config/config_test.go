package config_test

import (
	"testing"
	"time"

	"github.com/neomorfeo/proviq/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.DatabasePath != "proviq.db" {
		t.Errorf("DatabasePath = %q, want %q", cfg.DatabasePath, "proviq.db")
	}
	if cfg.QueueMaxWorkers != 5 {
		t.Errorf("QueueMaxWorkers = %d, want 5", cfg.QueueMaxWorkers)
	}
	if cfg.QueueMaxAttempts != 10 {
		t.Errorf("QueueMaxAttempts = %d, want 10", cfg.QueueMaxAttempts)
	}
	if cfg.HandlerTimeout != 30*time.Second {
		t.Errorf("HandlerTimeout = %v, want 30s", cfg.HandlerTimeout)
	}
	if cfg.CPanel.Username != "root" {
		t.Errorf("CPanel.Username = %q, want %q", cfg.CPanel.Username, "root")
	}
	if cfg.CPanel.BaseURL != "" {
		t.Errorf("CPanel.BaseURL = %q, want empty (provider disabled)", cfg.CPanel.BaseURL)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_PATH", "/tmp/proviq-test.db")
	t.Setenv("QUEUE_MAX_WORKERS", "2")
	t.Setenv("HANDLER_TIMEOUT", "5s")
	t.Setenv("CPANEL_BASE_URL", "https://whm.example.com:2087")
	t.Setenv("CPANEL_USERNAME", "reseller")
	t.Setenv("CPANEL_TOKEN", "whm-token")
	t.Setenv("DOMAINS_BASE_URL", "https://registrar.example.com")
	t.Setenv("DOMAINS_API_KEY", "registrar-key")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want %q", cfg.Port, "9090")
	}
	if cfg.DatabasePath != "/tmp/proviq-test.db" {
		t.Errorf("DatabasePath = %q, want %q", cfg.DatabasePath, "/tmp/proviq-test.db")
	}
	if cfg.QueueMaxWorkers != 2 {
		t.Errorf("QueueMaxWorkers = %d, want 2", cfg.QueueMaxWorkers)
	}
	if cfg.HandlerTimeout != 5*time.Second {
		t.Errorf("HandlerTimeout = %v, want 5s", cfg.HandlerTimeout)
	}
	if cfg.CPanel.BaseURL != "https://whm.example.com:2087" {
		t.Errorf("CPanel.BaseURL = %q", cfg.CPanel.BaseURL)
	}
	if cfg.CPanel.Username != "reseller" {
		t.Errorf("CPanel.Username = %q, want %q", cfg.CPanel.Username, "reseller")
	}
	if cfg.Domains.APIKey != "registrar-key" {
		t.Errorf("Domains.APIKey = %q, want %q", cfg.Domains.APIKey, "registrar-key")
	}
	if cfg.SSL.BaseURL != "" {
		t.Errorf("SSL.BaseURL = %q, want empty", cfg.SSL.BaseURL)
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("QUEUE_MAX_WORKERS", "many")

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for non-numeric QUEUE_MAX_WORKERS, got nil")
	}
}

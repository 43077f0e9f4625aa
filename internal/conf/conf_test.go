package conf

import (
	"errors"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("MESH_GATEWAY_URL", "https://gateway.example")
	t.Setenv("MESH_AGENT_KEY", "0xkey")
	t.Setenv("PAYRAIL_BASE_URL", "https://rail.example")
}

func TestLoadFromEnvDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("IDENTITY_DB_PATH", "/tmp/test-identities.db")

	cfg := LoadFromEnv()

	if cfg.Resolver.BaseURL != "https://fkey.id" {
		t.Errorf("expected default resolver URL, got %q", cfg.Resolver.BaseURL)
	}
	if cfg.Mesh.Handle != "@paybot" {
		t.Errorf("expected default handle, got %q", cfg.Mesh.Handle)
	}
	if cfg.Workers != 8 {
		t.Errorf("expected default worker count 8, got %d", cfg.Workers)
	}
	if cfg.ReapTTL != 72*time.Hour {
		t.Errorf("expected default reap TTL 72h, got %v", cfg.ReapTTL)
	}
	if cfg.AdminPort != 0 {
		t.Errorf("admin surface should be off by default, got %d", cfg.AdminPort)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("required fields are set, Validate failed: %v", err)
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("AGENT_HANDLE", "@linkbot")
	t.Setenv("HANDLER_WORKERS", "16")
	t.Setenv("REAP_TTL_HOURS", "24")
	t.Setenv("ADMIN_API_PORT", "8090")
	t.Setenv("DEBUG", "true")

	cfg := LoadFromEnv()

	if cfg.Mesh.Handle != "@linkbot" {
		t.Errorf("handle override ignored, got %q", cfg.Mesh.Handle)
	}
	if cfg.Workers != 16 {
		t.Errorf("worker override ignored, got %d", cfg.Workers)
	}
	if cfg.ReapTTL != 24*time.Hour {
		t.Errorf("reap TTL override ignored, got %v", cfg.ReapTTL)
	}
	if cfg.AdminPort != 8090 {
		t.Errorf("admin port override ignored, got %d", cfg.AdminPort)
	}
	if !cfg.Debug {
		t.Error("debug override ignored")
	}
}

func TestLoadFromEnvIgnoresBadNumbers(t *testing.T) {
	setRequired(t)
	t.Setenv("HANDLER_WORKERS", "lots")
	t.Setenv("REAP_TTL_HOURS", "-3")

	cfg := LoadFromEnv()
	if cfg.Workers != 8 {
		t.Errorf("unparseable worker count should keep the default, got %d", cfg.Workers)
	}
	if cfg.ReapTTL != 72*time.Hour {
		t.Errorf("non-positive reap hours should keep the default, got %v", cfg.ReapTTL)
	}
}

func TestValidateRequiredFields(t *testing.T) {
	cases := []struct {
		name  string
		unset string
	}{
		{"gateway", "MESH_GATEWAY_URL"},
		{"agent key", "MESH_AGENT_KEY"},
		{"rail", "PAYRAIL_BASE_URL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tc.unset, "")

			err := LoadFromEnv().Validate()
			if err == nil {
				t.Fatal("expected a validation error")
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) || cfgErr.Field != tc.unset {
				t.Errorf("expected ConfigError for %s, got %v", tc.unset, err)
			}
		})
	}
}

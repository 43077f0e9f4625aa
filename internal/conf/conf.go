package conf

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config represents application configuration
type Config struct {
	// Mesh gateway configuration
	Mesh MeshConfig

	// Alias resolver configuration
	Resolver ResolverConfig

	// Payment rail configuration
	PayRail PayRailConfig

	// Identity store configuration
	Store StoreConfig

	// Completion fallback configuration (optional)
	Completion CompletionConfig

	// Admin API port, 0 disables the admin surface
	AdminPort int

	// Handler pool size
	Workers int

	// Idle per-user state TTL for the reaper
	ReapTTL time.Duration

	// Debug mode
	Debug bool
}

// MeshConfig contains mesh gateway configuration
type MeshConfig struct {
	GatewayURL string
	AgentKey   string
	Handle     string // group mention token, e.g. "@paybot"
}

// ResolverConfig contains alias resolver configuration
type ResolverConfig struct {
	BaseURL string
}

// PayRailConfig contains payment rail configuration
type PayRailConfig struct {
	BaseURL string
	APIKey  string
}

// StoreConfig contains persistence configuration
type StoreConfig struct {
	DBPath        string
	RedisAddr     string // empty disables receipt capture
	RedisPassword string
}

// CompletionConfig contains completion fallback configuration
type CompletionConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	dbPath := os.Getenv("IDENTITY_DB_PATH")
	if dbPath == "" {
		homeDir, _ := os.UserHomeDir()
		dbPath = filepath.Join(homeDir, ".paylink-agent", "identities.db")
	}

	resolverURL := os.Getenv("RESOLVER_BASE_URL")
	if resolverURL == "" {
		resolverURL = "https://fkey.id"
	}

	handle := os.Getenv("AGENT_HANDLE")
	if handle == "" {
		handle = "@paybot"
	}

	workers := 8
	if val := os.Getenv("HANDLER_WORKERS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			workers = parsed
		}
	}

	reapHours := 72
	if val := os.Getenv("REAP_TTL_HOURS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			reapHours = parsed
		}
	}

	adminPort := 0
	if val := os.Getenv("ADMIN_API_PORT"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			adminPort = parsed
		}
	}

	return &Config{
		Mesh: MeshConfig{
			GatewayURL: os.Getenv("MESH_GATEWAY_URL"),
			AgentKey:   os.Getenv("MESH_AGENT_KEY"),
			Handle:     handle,
		},
		Resolver: ResolverConfig{
			BaseURL: resolverURL,
		},
		PayRail: PayRailConfig{
			BaseURL: os.Getenv("PAYRAIL_BASE_URL"),
			APIKey:  os.Getenv("PAYRAIL_API_KEY"),
		},
		Store: StoreConfig{
			DBPath:        dbPath,
			RedisAddr:     os.Getenv("REDIS_ADDR"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
		},
		Completion: CompletionConfig{
			APIKey:  os.Getenv("COMPLETION_API_KEY"),
			Model:   os.Getenv("COMPLETION_MODEL"),
			BaseURL: os.Getenv("COMPLETION_BASE_URL"),
		},
		AdminPort: adminPort,
		Workers:   workers,
		ReapTTL:   time.Duration(reapHours) * time.Hour,
		Debug:     os.Getenv("DEBUG") == "true",
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Mesh.GatewayURL == "" {
		return &ConfigError{Field: "MESH_GATEWAY_URL", Message: "required"}
	}
	if c.Mesh.AgentKey == "" {
		return &ConfigError{Field: "MESH_AGENT_KEY", Message: "required"}
	}
	if c.PayRail.BaseURL == "" {
		return &ConfigError{Field: "PAYRAIL_BASE_URL", Message: "required"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

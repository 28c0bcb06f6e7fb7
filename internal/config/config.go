package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Tools     ToolsConfig     `mapstructure:"tools"`
	Data      DataConfig      `mapstructure:"data"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Inventory InventoryConfig `mapstructure:"inventory"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// BackendConfig configures the OpenAI-compatible model backend.
type BackendConfig struct {
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
}

// ToolsConfig bounds tool execution.
type ToolsConfig struct {
	Timeout  time.Duration `mapstructure:"timeout"`   // per-call handler budget
	MaxTurns int           `mapstructure:"max_turns"` // model round-trips per request
}

// DataConfig points at the catalog and user storage.
type DataConfig struct {
	MedicationsPath string `mapstructure:"medications_path"` // JSON seed for the catalog
	PharmaciesPath  string `mapstructure:"pharmacies_path"`
	CatalogDB       string `mapstructure:"catalog_db"` // sqlite catalog, seeded from medications_path
	UserDB          string `mapstructure:"user_db"`    // sqlite users/conversations/usage
	SeedDemo        bool   `mapstructure:"seed_demo"`
}

// AuthConfig configures session token signing.
type AuthConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
}

// InventoryConfig configures the external stock service.
type InventoryConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		viper.AddConfigPath(dir + "/pharmassist")
	}

	// Set defaults
	viper.SetDefault("server.addr", ":8000")
	viper.SetDefault("backend.base_url", "https://api.openai.com/v1")
	viper.SetDefault("backend.model", "gpt-4o-mini")
	viper.SetDefault("backend.temperature", 0.3)
	viper.SetDefault("tools.timeout", 15*time.Second)
	viper.SetDefault("tools.max_turns", 6)
	viper.SetDefault("data.medications_path", "data/medications.json")
	viper.SetDefault("data.pharmacies_path", "data/pharmacies.json")
	viper.SetDefault("data.catalog_db", "data/catalog.db")
	viper.SetDefault("data.user_db", "data/users.db")
	viper.SetDefault("data.seed_demo", true)
	viper.SetDefault("auth.expiry", 24*time.Hour)
	viper.SetDefault("inventory.base_url", "http://localhost:8001")

	// Read config file (optional - won't error if missing)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	resolveSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolveSecrets fills key material from the environment when the config
// file leaves it out.
func resolveSecrets(cfg *Config) {
	cfg.Backend.APIKey = expandEnv(cfg.Backend.APIKey)
	if cfg.Backend.APIKey == "" {
		cfg.Backend.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	cfg.Auth.Secret = expandEnv(cfg.Auth.Secret)
	if cfg.Auth.Secret == "" {
		cfg.Auth.Secret = os.Getenv("PHARMASSIST_AUTH_SECRET")
	}
}

func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if c.Tools.MaxTurns <= 0 {
		return fmt.Errorf("tools.max_turns must be positive")
	}
	if c.Tools.Timeout <= 0 {
		return fmt.Errorf("tools.timeout must be positive")
	}
	return nil
}

// expandEnv expands ${VAR} references in config values.
func expandEnv(value string) string {
	if strings.Contains(value, "${") {
		return os.ExpandEnv(value)
	}
	return value
}

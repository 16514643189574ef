package config

import (
	"context"
	"fmt"
	"os"

	"github.com/sethvargo/go-envconfig"
	"go.yaml.in/yaml/v4"
)

// Config is read from the YAML file at $configPath. Secrets may be overridden from
// LOGITRACK_* environment variables, they win over the file.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Cache     CacheConfig     `yaml:"cache"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Database  DatabaseConfig  `yaml:"database"`
	LogiTrack LogiTrackConfig `yaml:"logitrack"`
	Map       MapConfig       `yaml:"map"`
	Emulator  EmulatorConfig  `yaml:"emulator"`
}

type StoreConfig struct {
	Enabled        bool   `yaml:"enabled" env:"LOGITRACK_STORE_ENABLED, overwrite"`
	BaseURL        string `yaml:"base_url" env:"LOGITRACK_STORE_URL, overwrite"`
	PublishableKey string `yaml:"publishable_key" env:"LOGITRACK_STORE_PUBLISHABLE_KEY, overwrite"`
	SecretKey      string `yaml:"secret_key" env:"LOGITRACK_STORE_SECRET_KEY, overwrite"`
	// Without secret_key admin writes go out with the publishable key, unless this is set.
	DisableAdminPublicFallback bool `yaml:"disable_admin_public_fallback"`
	TimeoutSeconds             int  `yaml:"timeout_seconds"`
}

type CacheConfig struct {
	Backend string `yaml:"backend"` // "redis" | "file"
	FileDir string `yaml:"file_dir"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	DB   int    `yaml:"db"`
}

type KafkaConfig struct {
	Enabled                bool   `yaml:"enabled"`
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	OrdersChangedTopicName string `yaml:"orders_changed_topic_name"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password" env:"LOGITRACK_DB_PASSWORD, overwrite"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type LogiTrackConfig struct {
	HTTPAddr   string `yaml:"http_addr"`
	AdminToken string `yaml:"admin_token" env:"LOGITRACK_ADMIN_TOKEN, overwrite"`
	LogLevel   string `yaml:"log_level" env:"LOGITRACK_LOG_LEVEL, overwrite"`

	MaxViews                       int `yaml:"max_views"`
	SearchRateLimitPerMinute       int `yaml:"search_rate_limit_per_minute"`
	SnapshotRefreshIntervalSeconds int `yaml:"snapshot_refresh_interval_seconds"`
}

type MapConfig struct {
	Width           int    `yaml:"width"`
	Height          int    `yaml:"height"`
	Padding         int    `yaml:"padding"`
	MaxZoom         int    `yaml:"max_zoom"`
	TileURL         string `yaml:"tile_url"`
	TileAttribution string `yaml:"tile_attribution"`
}

type EmulatorConfig struct {
	HTTPAddr  string `yaml:"http_addr"`
	JWTSecret string `yaml:"jwt_secret" env:"LOGITRACK_EMULATOR_JWT_SECRET, overwrite"`
}

func LoadConfig(filename string) (*Config, error) {
	return loadConfig(filename, envconfig.OsLookuper())
}

func loadConfig(filename string, env envconfig.Lookuper) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   &config,
		Lookuper: env,
	}); err != nil {
		return nil, fmt.Errorf("failed to apply env overrides: %w", err)
	}

	return &config, nil
}

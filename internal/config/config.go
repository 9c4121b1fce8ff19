package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"tero/internal/matching"
)

// ErrInvalidConfig wraps every validation failure returned by Load.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the service configuration. It is read from a YAML file and then
// overridden by environment variables.
type Config struct {
	Server        ServerConfig       `yaml:"server"`
	Log           LogConfig          `yaml:"log"`
	Database      DatabaseConfig     `yaml:"database"`
	Matching      MatchingConfig     `yaml:"matching"`
	AI            AIConfig           `yaml:"ai"`
	Notifications NotificationConfig `yaml:"notifications"`
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

type DatabaseConfig struct {
	// Path is the SQLite file. ":memory:" keeps everything in process.
	Path string `yaml:"path"`
	// Seed loads the bundled hospital list on startup.
	Seed bool `yaml:"seed"`
}

type MatchingConfig struct {
	Params        matching.Params `yaml:"params"`
	MaxDistanceKm float64         `yaml:"max_distance_km"`
	TopN          int             `yaml:"top_n"`
	SpeedKmh      float64         `yaml:"speed_kmh"`
}

type AIConfig struct {
	ModelType string        `yaml:"model_type"`
	Endpoint  string        `yaml:"endpoint"`
	APIKey    string        `yaml:"api_key"`
	ModelName string        `yaml:"model_name"`
	Timeout   time.Duration `yaml:"timeout"`
	MaxTokens int           `yaml:"max_tokens"`
}

// Enabled reports whether an AI model is configured.
func (c AIConfig) Enabled() bool {
	return c.APIKey != ""
}

type NotificationConfig struct {
	// Mode is "http", "nats" or "none".
	Mode          string        `yaml:"mode"`
	Endpoint      string        `yaml:"endpoint"`
	APIKey        string        `yaml:"api_key"`
	NATSURL       string        `yaml:"nats_url"`
	SubjectPrefix string        `yaml:"subject_prefix"`
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryInterval time.Duration `yaml:"retry_interval"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:           8080,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    120 * time.Second,
			RequestTimeout: 60 * time.Second,
			MaxBodyBytes:   1 << 20,
		},
		Log: LogConfig{
			Level: "info",
		},
		Database: DatabaseConfig{
			Path: "tero.db",
			Seed: true,
		},
		Matching: MatchingConfig{
			Params:        matching.DefaultParams(),
			MaxDistanceKm: 50,
			TopN:          10,
			SpeedKmh:      30,
		},
		AI: AIConfig{
			ModelType: "claude",
			Timeout:   30 * time.Second,
			MaxTokens: 1024,
		},
		Notifications: NotificationConfig{
			Mode:          "none",
			SubjectPrefix: "tero.prealert",
			RetryAttempts: 3,
			RetryInterval: 500 * time.Millisecond,
		},
	}
}

// Load reads the YAML file at path (missing files are not an error), applies
// environment overrides and validates the result. An empty path falls back to
// $TERO_CONFIG.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("TERO_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)
	hydrateDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = GetInt("PORT", cfg.Server.Port)
	cfg.Server.RequestTimeout = GetDuration("API_TIMEOUT_SECONDS", cfg.Server.RequestTimeout)

	cfg.Log.Level = Get("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Pretty = GetBool("LOG_PRETTY", cfg.Log.Pretty)

	cfg.Database.Path = Get("TERO_DB_PATH", cfg.Database.Path)
	cfg.Database.Seed = GetBool("TERO_DB_SEED", cfg.Database.Seed)

	cfg.Matching.MaxDistanceKm = GetFloat("MATCH_MAX_DISTANCE_KM", cfg.Matching.MaxDistanceKm)
	cfg.Matching.TopN = GetInt("MATCH_TOP_N", cfg.Matching.TopN)

	cfg.AI.ModelType = strings.ToLower(Get("AI_MODEL_TYPE", cfg.AI.ModelType))
	cfg.AI.Endpoint = Get("AI_MODEL_ENDPOINT", cfg.AI.Endpoint)
	cfg.AI.APIKey = Get("AI_MODEL_API_KEY", cfg.AI.APIKey)
	cfg.AI.ModelName = Get("AI_MODEL_NAME", cfg.AI.ModelName)
	// Model-specific keys are used when the generic one is absent.
	if cfg.AI.APIKey == "" {
		switch cfg.AI.ModelType {
		case "claude":
			cfg.AI.APIKey = Get("CLAUDE_API_KEY", "")
		case "openai":
			cfg.AI.APIKey = Get("OPENAI_API_KEY", "")
		}
	}

	cfg.Notifications.Mode = strings.ToLower(Get("NOTIFY_MODE", cfg.Notifications.Mode))
	cfg.Notifications.Endpoint = Get("HOSPITAL_API_ENDPOINT", cfg.Notifications.Endpoint)
	cfg.Notifications.APIKey = Get("HOSPITAL_API_KEY", cfg.Notifications.APIKey)
	cfg.Notifications.NATSURL = Get("NATS_URL", cfg.Notifications.NATSURL)
}

func hydrateDefaults(cfg *Config) {
	def := Default()
	if cfg.Server.Port == 0 {
		cfg.Server.Port = def.Server.Port
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = def.Server.RequestTimeout
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = def.Server.MaxBodyBytes
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = def.Database.Path
	}
	if cfg.Matching.TopN == 0 {
		cfg.Matching.TopN = def.Matching.TopN
	}
	if cfg.Matching.SpeedKmh == 0 {
		cfg.Matching.SpeedKmh = def.Matching.SpeedKmh
	}
	if cfg.Notifications.SubjectPrefix == "" {
		cfg.Notifications.SubjectPrefix = def.Notifications.SubjectPrefix
	}
	if cfg.Notifications.RetryAttempts == 0 {
		cfg.Notifications.RetryAttempts = def.Notifications.RetryAttempts
	}
	if cfg.Notifications.Mode == "" {
		cfg.Notifications.Mode = def.Notifications.Mode
	}
}

// Validate checks values that would otherwise fail at runtime.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if err := c.Matching.Params.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Matching.MaxDistanceKm < 0 {
		return fmt.Errorf("%w: matching.max_distance_km must not be negative", ErrInvalidConfig)
	}
	switch c.Notifications.Mode {
	case "none":
	case "http":
		if c.Notifications.Endpoint == "" {
			return fmt.Errorf("%w: notifications.endpoint is required for http mode", ErrInvalidConfig)
		}
	case "nats":
		if c.Notifications.NATSURL == "" {
			return fmt.Errorf("%w: notifications.nats_url is required for nats mode", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown notifications.mode %q", ErrInvalidConfig, c.Notifications.Mode)
	}
	switch c.AI.ModelType {
	case "claude", "openai":
	default:
		return fmt.Errorf("%w: unknown ai.model_type %q", ErrInvalidConfig, c.AI.ModelType)
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissingAPIKey is fatal at startup.
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY environment variable is required")

type Config struct {
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	Server    ServerConfig    `yaml:"server"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Content   ContentConfig   `yaml:"content"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Contact   ContactConfig   `yaml:"contact"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	// FrontendURL is the only origin allowed to call the API from a browser.
	FrontendURL     string        `yaml:"frontend_url"`
	TrustedProxies  []string      `yaml:"trusted_proxies"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type GeminiConfig struct {
	// APIKey only comes from the environment.
	APIKey  string        `yaml:"-"`
	Model   string        `yaml:"model"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type ContentConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	ResolveLimit int           `yaml:"resolve_limit"`
}

type RateLimitConfig struct {
	// DSN switches the limiter to the shared PostgreSQL store.
	DSN           string        `yaml:"dsn"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type ContactConfig struct {
	// Archive of submissions: "log", "local" or "gcs"
	Archive string `yaml:"archive"`

	// Local archive options
	ArchiveDir string `yaml:"archive_dir"`

	// GCS archive options
	Bucket          string `yaml:"bucket"`
	ObjectPrefix    string `yaml:"object_prefix"`
	CredentialsFile string `yaml:"credentials_file"`
}

// Load reads a YAML config file and fills in defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config *Config

	// Unmarshal the YAML data into the struct
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, err
	}
	if config == nil {
		config = &Config{}
	}

	config.applyDefaults()
	return config, nil
}

// LoadOptional is Load, except that a missing file yields the defaults.
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = &Config{}
		cfg.applyDefaults()
		return cfg, nil
	}
	return cfg, err
}

// Resolve builds the runtime configuration with LoadWithEnv and validates it.
func Resolve(path, envFile string) (*Config, error) {
	cfg, err := LoadWithEnv(path, envFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithEnv reads the optional YAML file, then variables from envFile
// (if it exists), then the process environment. Nothing is validated.
func LoadWithEnv(path, envFile string) (*Config, error) {
	cfg, err := LoadOptional(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if envFile != "" {
		// existing environment variables win over the file
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Env == "" {
		c.Env = "development"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Server.Port == "" {
		c.Server.Port = "3001"
	}
	if c.Server.FrontendURL == "" {
		c.Server.FrontendURL = "http://localhost:3000"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 5 * time.Second
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-3-flash-preview"
	}
	if c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if c.Gemini.Timeout == 0 {
		c.Gemini.Timeout = 30 * time.Second
	}
	if c.Content.BaseURL == "" {
		c.Content.BaseURL = "https://studioeighty7.com/index.php"
	}
	if c.Content.Timeout == 0 {
		c.Content.Timeout = 10 * time.Second
	}
	if c.Content.ResolveLimit == 0 {
		c.Content.ResolveLimit = 4
	}
	if c.RateLimit.SweepInterval == 0 {
		c.RateLimit.SweepInterval = time.Minute
	}
	if c.Contact.Archive == "" {
		c.Contact.Archive = "log"
	}
	if c.Contact.ArchiveDir == "" {
		c.Contact.ArchiveDir = "data"
	}
}

// ApplyEnv overrides file values with the recognised environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	set(&c.Gemini.APIKey, "GEMINI_API_KEY")
	set(&c.Gemini.Model, "GEMINI_MODEL")
	set(&c.Gemini.BaseURL, "GEMINI_BASE_URL")
	set(&c.Server.Port, "PORT")
	set(&c.Server.FrontendURL, "FRONTEND_URL")
	set(&c.Content.BaseURL, "CONTENT_API_URL")
	set(&c.RateLimit.DSN, "RATE_LIMIT_DSN")
	set(&c.Contact.Archive, "CONTACT_ARCHIVE")
	set(&c.Contact.ArchiveDir, "CONTACT_ARCHIVE_DIR")
	set(&c.Contact.Bucket, "CONTACT_BUCKET")
	set(&c.LogLevel, "LOG_LEVEL")
	set(&c.LogFile, "LOG_FILE")
	set(&c.Env, "APP_ENV")

	if v := strings.TrimSpace(getenv("TRUSTED_PROXIES")); v != "" {
		c.Server.TrustedProxies = nil
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				c.Server.TrustedProxies = append(c.Server.TrustedProxies, p)
			}
		}
	}
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return ErrMissingAPIKey
	}

	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %q", c.Server.Port)
	}

	u, err := url.Parse(c.Server.FrontendURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid frontend url %q", c.Server.FrontendURL)
	}

	switch c.Contact.Archive {
	case "log", "local":
	case "gcs":
		if c.Contact.Bucket == "" {
			return fmt.Errorf("contact archive gcs requires a bucket")
		}
	default:
		return fmt.Errorf("unsupported contact archive %q", c.Contact.Archive)
	}
	return nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

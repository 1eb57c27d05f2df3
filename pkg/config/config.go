package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the engine.
// Values come from config.yaml with environment variable overrides;
// secrets (API keys, database password) must only come from environment
// variables (yaml:"-" fields).
type Config struct {
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8086"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"json"`

	Database   DatabaseConfig   `yaml:"database"`
	Render     RenderConfig     `yaml:"render"`
	Bandit     BanditConfig     `yaml:"bandit"`
	Removal    RemovalConfig    `yaml:"background_removal"`
	Copywriter CopywriterConfig `yaml:"copywriter"`
	Compliance ComplianceConfig `yaml:"compliance"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"promoforge"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"promoforge_engine"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
}

// URL builds the connection string for pgx.
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// RenderConfig holds rendering pipeline settings.
type RenderConfig struct {
	// OutputDir receives rendered banners when the request does not name a
	// path.
	OutputDir string `yaml:"output_dir" env:"RENDER_OUTPUT_DIR" env-default:"./out"`
	// CacheDir holds content-addressed harmonization results.
	CacheDir string `yaml:"cache_dir" env:"RENDER_CACHE_DIR" env-default:"./cache"`
	// FontPaths is the ordered font fallback chain (TTF/OTF files) walked
	// after the profile's own font file and family.
	FontPaths   []string `yaml:"font_paths" env:"RENDER_FONT_PATHS"`
	JPEGQuality int      `yaml:"jpeg_quality" env:"RENDER_JPEG_QUALITY" env-default:"90"`
}

// BanditConfig holds the A/B optimization policy knobs. The tie-break and
// epsilon default are policy choices, not correctness requirements, so they
// live here rather than in code.
type BanditConfig struct {
	Epsilon      float64 `yaml:"epsilon" env:"BANDIT_EPSILON" env-default:"0.2"`
	HalfLifeDays float64 `yaml:"half_life_days" env:"BANDIT_HALF_LIFE_DAYS" env-default:"30"`
	// MinDecayDays amortizes decay: counters are only decayed when at least
	// this many days have elapsed since the last decay.
	MinDecayDays float64 `yaml:"min_decay_days" env:"BANDIT_MIN_DECAY_DAYS" env-default:"0.5"`
	// BootstrapPlays is the prior weight given to each arm when seeding
	// initial win-rates.
	BootstrapPlays float64 `yaml:"bootstrap_plays" env:"BANDIT_BOOTSTRAP_PLAYS" env-default:"10"`
}

// RemovalConfig selects the background removal strategy.
type RemovalConfig struct {
	// Mode is one of "none", "command", "http".
	Mode string `yaml:"mode" env:"BGREMOVAL_MODE" env-default:"none"`
	// Command is the argv template for command mode; {in} and {out} are
	// replaced with the input and output paths.
	Command []string `yaml:"command" env:"BGREMOVAL_COMMAND"`
	// Endpoint is the HTTP endpoint for http mode.
	Endpoint       string `yaml:"endpoint" env:"BGREMOVAL_ENDPOINT"`
	APIKey         string `yaml:"-" env:"BGREMOVAL_API_KEY"` // Secret - not in YAML
	TimeoutSeconds int    `yaml:"timeout_seconds" env:"BGREMOVAL_TIMEOUT_SECONDS" env-default:"20"`
}

// CopywriterConfig configures the optional LLM title refinement. Left
// unconfigured, the copywriter is a pass-through.
type CopywriterConfig struct {
	// Provider is "openai", "anthropic", or "" to disable.
	Provider string `yaml:"provider" env:"COPYWRITER_PROVIDER" env-default:""`
	// Endpoint overrides the provider base URL (OpenAI-compatible servers).
	Endpoint string `yaml:"endpoint" env:"COPYWRITER_ENDPOINT"`
	Model    string `yaml:"model" env:"COPYWRITER_MODEL"`
	APIKey   string `yaml:"-" env:"COPYWRITER_API_KEY"` // Secret - not in YAML
	// MaxExemplars caps how many recent teach samples are sent as few-shot
	// examples.
	MaxExemplars   int `yaml:"max_exemplars" env:"COPYWRITER_MAX_EXEMPLARS" env-default:"5"`
	TimeoutSeconds int `yaml:"timeout_seconds" env:"COPYWRITER_TIMEOUT_SECONDS" env-default:"15"`
}

// ComplianceConfig configures market dictionaries.
type ComplianceConfig struct {
	// DictionaryDir, when set, is scanned for additional per-market YAML
	// dictionaries merged over the embedded ones.
	DictionaryDir string `yaml:"dictionary_dir" env:"COMPLIANCE_DICTIONARY_DIR"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. Missing config.yaml is fine; env defaults apply.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Bandit.Epsilon < 0 || c.Bandit.Epsilon > 1 {
		return fmt.Errorf("bandit epsilon %v out of range [0,1]", c.Bandit.Epsilon)
	}
	if c.Bandit.HalfLifeDays <= 0 {
		return errors.New("bandit half_life_days must be positive")
	}
	switch c.Removal.Mode {
	case "none", "command", "http":
	default:
		return fmt.Errorf("unknown background removal mode %q", c.Removal.Mode)
	}
	if c.Removal.Mode == "command" && len(c.Removal.Command) == 0 {
		return errors.New("background removal mode is command but no command configured")
	}
	if c.Removal.Mode == "http" && c.Removal.Endpoint == "" {
		return errors.New("background removal mode is http but no endpoint configured")
	}
	switch c.Copywriter.Provider {
	case "", "openai", "anthropic":
	default:
		return fmt.Errorf("unknown copywriter provider %q", c.Copywriter.Provider)
	}
	return nil
}

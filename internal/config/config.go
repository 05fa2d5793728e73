package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

const (
	defaultMaxConflictRetries = 3
	defaultUrgentWindowDays   = 7
	defaultServerAddr         = ":8080"
	defaultLogDir             = "logs"
)

// DatabaseConfig selects and locates the store
type DatabaseConfig struct {
	Driver string `yaml:"driver" validate:"required,oneof=postgres sqlite memory"`
	URL    string `yaml:"url" validate:"required_unless=Driver memory"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// CoverageConfig tunes the claim and release protocols
type CoverageConfig struct {
	MaxConflictRetries int  `yaml:"maxConflictRetries,omitempty" validate:"gte=0,lte=20"`
	NotifyOnRelease    bool `yaml:"notifyOnRelease,omitempty"`
	UrgentWindowDays   int  `yaml:"urgentWindowDays,omitempty" validate:"gte=0,lte=30"`
}

// ClinicConfig is a recurring clinic that requests can expand into sessions
type ClinicConfig struct {
	Name      string `yaml:"name" validate:"required"`
	RRule     string `yaml:"rrule" validate:"required"`
	StartTime string `yaml:"startTime" validate:"required"`
	EndTime   string `yaml:"endTime" validate:"required"`
	Notes     string `yaml:"notes,omitempty"`
}

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server,omitempty"`
	Coverage CoverageConfig `yaml:"coverage,omitempty"`
	Clinics  []ClinicConfig `yaml:"clinics,omitempty" validate:"dive"`
	LogDir   string         `yaml:"logDir,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from clinic_cover_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads clinic_cover_config.<env>.yaml, or the default file when env is empty
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(configFileName(env))
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct, clinic rrules and clinic times
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	seen := make(map[string]bool, len(cfg.Clinics))
	for i, clinic := range cfg.Clinics {
		if seen[clinic.Name] {
			return fmt.Errorf("duplicate clinic name in clinics[%d]: %s", i, clinic.Name)
		}
		seen[clinic.Name] = true

		if _, err := rrule.StrToRRule(clinic.RRule); err != nil {
			return fmt.Errorf("invalid rrule in clinics[%d]: %w", i, err)
		}

		start, err := ParseClock(clinic.StartTime)
		if err != nil {
			return fmt.Errorf("invalid startTime in clinics[%d]: %w", i, err)
		}
		end, err := ParseClock(clinic.EndTime)
		if err != nil {
			return fmt.Errorf("invalid endTime in clinics[%d]: %w", i, err)
		}
		if end <= start {
			return fmt.Errorf("clinics[%d] endTime must be after startTime", i)
		}
	}

	return nil
}

// Clinic returns the configured clinic with the given name
func (c *Config) Clinic(name string) (*ClinicConfig, bool) {
	for i := range c.Clinics {
		if c.Clinics[i].Name == name {
			return &c.Clinics[i], true
		}
	}
	return nil, false
}

// ParseClock parses an HH:MM time of day into an offset from midnight
func ParseClock(value string) (time.Duration, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("expected HH:MM, got %q", value)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Coverage.MaxConflictRetries == 0 {
		cfg.Coverage.MaxConflictRetries = defaultMaxConflictRetries
	}
	if cfg.Coverage.UrgentWindowDays == 0 {
		cfg.Coverage.UrgentWindowDays = defaultUrgentWindowDays
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultServerAddr
	}
	if cfg.LogDir == "" {
		cfg.LogDir = defaultLogDir
	}
}

func configFileName(env string) string {
	if env == "" {
		return "clinic_cover_config.yaml"
	}
	return fmt.Sprintf("clinic_cover_config.%s.yaml", env)
}

// findConfigFile searches for the config file in current directory and home directory
func findConfigFile(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, name)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", name)
}

package main

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigDir = ".md-publisher"

// Environment variables read on top of the settings file
const (
	envHost   = "MEDIUM_HOST"
	envUserID = "MEDIUM_USER_ID"
	envToken  = "MEDIUM_TOKEN"
	envTitle  = "MEDIUM_POST_TITLE"
	envFile   = "MEDIUM_FILE"
	envDotEnv = "ENV_FILE"
)

//go:embed config/settings.yaml
var defaultSettings string

// Settings represents the YAML configuration structure
type Settings struct {
	Host          string        `yaml:"host"`
	UserID        string        `yaml:"user_id"`
	Title         string        `yaml:"title"`
	File          string        `yaml:"file"`
	PublishStatus string        `yaml:"publish_status"`
	Timeout       time.Duration `yaml:"timeout"`

	// Token only ever comes from the environment or a flag
	Token string `yaml:"-"`
}

// ConfigOverrides holds values given on the command line
type ConfigOverrides struct {
	SettingsPath *string
	Host         *string
	UserID       *string
	Token        *string
	Title        *string
	File         *string
	Timeout      *time.Duration
}

// GetConfigPath returns the full path to a config file
func GetConfigPath(filename string) string {
	return filepath.Join(defaultConfigDir, filename)
}

// LoadSettings resolves settings with precedence flag > env > file > embedded default
func LoadSettings(overrides *ConfigOverrides) (*Settings, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	settings, err := parseSettings([]byte(defaultSettings))
	if err != nil {
		return nil, fmt.Errorf("parsing embedded settings: %w", err)
	}

	if overrides != nil && overrides.SettingsPath != nil {
		// Explicit settings file must exist
		data, err := os.ReadFile(*overrides.SettingsPath)
		if err != nil {
			return nil, fmt.Errorf("reading settings file: %w", err)
		}
		if err := yaml.Unmarshal(data, settings); err != nil {
			return nil, fmt.Errorf("parsing settings file %s: %w", *overrides.SettingsPath, err)
		}
	} else {
		if err := ensureConfigExists(); err != nil {
			return nil, fmt.Errorf("ensuring config files exist: %w", err)
		}
		settingsPath := GetConfigPath("settings.yaml")
		if data, err := os.ReadFile(settingsPath); err == nil {
			if err := yaml.Unmarshal(data, settings); err != nil {
				return nil, fmt.Errorf("parsing settings file %s: %w", settingsPath, err)
			}
		}
	}

	settings.applyEnv()
	settings.applyOverrides(overrides)

	return settings, nil
}

func parseSettings(data []byte) (*Settings, error) {
	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// loadEnvFiles loads ENV_FILE if set, otherwise .env.local then .env.
// Missing files are ignored and existing variables are never replaced.
func loadEnvFiles() error {
	if envFile := os.Getenv(envDotEnv); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("loading env file %s: %w", envFile, err)
		}
		return nil
	}

	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("loading %s: %w", name, err)
		}
	}
	return nil
}

func (s *Settings) applyEnv() {
	setFromEnv(&s.Host, envHost)
	setFromEnv(&s.UserID, envUserID)
	setFromEnv(&s.Token, envToken)
	setFromEnv(&s.Title, envTitle)
	setFromEnv(&s.File, envFile)
}

func setFromEnv(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func (s *Settings) applyOverrides(o *ConfigOverrides) {
	if o == nil {
		return
	}
	if o.Host != nil {
		s.Host = *o.Host
	}
	if o.UserID != nil {
		s.UserID = *o.UserID
	}
	if o.Token != nil {
		s.Token = *o.Token
	}
	if o.Title != nil {
		s.Title = *o.Title
	}
	if o.File != nil {
		s.File = *o.File
	}
	if o.Timeout != nil {
		s.Timeout = *o.Timeout
	}
}

// Validate checks the settings needed to publish
func (s *Settings) Validate() error {
	return s.validate(true)
}

// ValidateTarget checks everything except credentials, for dry runs
func (s *Settings) ValidateTarget() error {
	return s.validate(false)
}

// userIDPattern matches IDs that stay one segment of the posts URL
var userIDPattern = regexp.MustCompile(`^[^/\\?#]+$`)

func (s *Settings) validate(requireToken bool) error {
	fields := []*validation.FieldRules{
		validation.Field(&s.Host, validation.Required),
		validation.Field(&s.UserID,
			validation.Required,
			validation.Match(userIDPattern).Error("must be a single path segment"),
			validation.NotIn(".", ".."),
		),
		validation.Field(&s.Timeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&s.PublishStatus, validation.In("public", "draft", "unlisted")),
	}
	if requireToken {
		fields = append(fields, validation.Field(&s.Token, validation.Required.Error("is required (set "+envToken+" or --token)")))
	}

	if err := validation.ValidateStruct(s, fields...); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// ensureConfigExists creates the config directory and writes settings.yaml if needed
func ensureConfigExists() error {
	if err := os.MkdirAll(defaultConfigDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	settingsFile := GetConfigPath("settings.yaml")
	if _, err := os.Stat(settingsFile); os.IsNotExist(err) {
		if err := os.WriteFile(settingsFile, []byte(defaultSettings), 0644); err != nil {
			return fmt.Errorf("writing settings.yaml: %w", err)
		}
	}

	return nil
}

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the resolved shelf settings.
type Config struct {
	BaseURL        string        `toml:"base_url" validate:"required,url"`
	DefaultQuery   string        `toml:"default_query" validate:"required,max=256"`
	EmptyResults   string        `toml:"empty_results" validate:"oneof=error empty"`
	EnrichDetails  bool          `toml:"enrich_details"`
	RequestTimeout time.Duration `toml:"request_timeout" validate:"gte=0"`
	UserAgent      string        `toml:"user_agent" validate:"required,max=200"`
	LogFile        string        `toml:"log_file" validate:"required"`
	LogLevel       string        `toml:"log_level" validate:"oneof=trace debug info warn warning error"`
}

const (
	defaultConfigPath   = "~/.config/shelf/config.toml"
	defaultBaseURL      = "https://www.googleapis.com/books/v1/"
	defaultQuery        = "jazz+history"
	defaultEmptyResults = "error"
	defaultUserAgent    = "shelf/0.1"
	defaultLogFile      = "~/.local/state/shelf/shelf.log"
	defaultLogLevel     = "info"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		BaseURL:      defaultBaseURL,
		DefaultQuery: defaultQuery,
		EmptyResults: defaultEmptyResults,
		UserAgent:    defaultUserAgent,
		LogFile:      mustExpand(defaultLogFile),
		LogLevel:     defaultLogLevel,
	}
}

// Load reads the shelf config, falling back to defaults when the file is
// missing or a value is left empty.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		BaseURL        string `toml:"base_url"`
		DefaultQuery   string `toml:"default_query"`
		EmptyResults   string `toml:"empty_results"`
		EnrichDetails  bool   `toml:"enrich_details"`
		RequestTimeout string `toml:"request_timeout"`
		UserAgent      string `toml:"user_agent"`
		LogFile        string `toml:"log_file"`
		LogLevel       string `toml:"log_level"`
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	setString(&cfg.BaseURL, raw.BaseURL)
	setString(&cfg.DefaultQuery, raw.DefaultQuery)
	setString(&cfg.EmptyResults, strings.ToLower(raw.EmptyResults))
	setString(&cfg.UserAgent, raw.UserAgent)
	setString(&cfg.LogLevel, strings.ToLower(raw.LogLevel))
	cfg.EnrichDetails = raw.EnrichDetails

	if logFile := strings.TrimSpace(raw.LogFile); logFile != "" {
		expanded, err := expandPath(logFile)
		if err != nil {
			return Config{}, fmt.Errorf("log_file: %w", err)
		}
		cfg.LogFile = expanded
	}

	if timeout := strings.TrimSpace(raw.RequestTimeout); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse config: request_timeout: %w", err)
		}
		cfg.RequestTimeout = d
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field and reports all failures at once.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validate config: %w", err)
		}
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, fe.Field()+" "+friendlyMessage(fe))
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// DefaultPath returns the expanded default config location.
func DefaultPath() string {
	return mustExpand(defaultConfigPath)
}

var validate = func() *validator.Validate {
	v := validator.New()
	// Report TOML key names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("toml"); name != "" && name != "-" {
			return name
		}
		return fld.Name
	})
	return v
}()

func friendlyMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "max":
		return fmt.Sprintf("must not exceed %s characters", fe.Param())
	case "gte":
		return "must not be negative"
	default:
		return "is invalid"
	}
}

func setString(dst *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*dst = v
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}

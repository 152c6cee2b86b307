// Package config loads the optional idsync.yaml project file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "idsync.yaml"

// DefaultLedgerName is the ledger file name used when none is configured.
// The ledger lives next to the model files.
const DefaultLedgerName = "idsync-model.json"

// Config is the project configuration. Paths are resolved relative to the
// directory of the config file.
type Config struct {
	Model          string        `yaml:"model" validate:"required"`
	Ledger         string        `yaml:"ledger" validate:"omitempty,jsonfile"`
	History        string        `yaml:"history"`
	StrictChecksum bool          `yaml:"strict_checksum"`
	Format         string        `yaml:"format" validate:"oneof=text json"`
	LogLevel       string        `yaml:"log_level" validate:"oneof=debug info warn error"`
	WatchDebounce  time.Duration `yaml:"watch_debounce" validate:"min=0,max=1m"`
}

var configValidate *validator.Validate

func init() {
	configValidate = validator.New()
	_ = configValidate.RegisterValidation("jsonfile", validateJSONFile)

	// Report yaml keys rather than Go field names.
	configValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.Split(f.Tag.Get("yaml"), ",")[0]
	})
}

// validateJSONFile requires a .json extension so a model file is never
// mistaken for the ledger.
func validateJSONFile(fl validator.FieldLevel) bool {
	return strings.EqualFold(filepath.Ext(fl.Field().String()), ".json")
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Model:         ".",
		Format:        "text",
		LogLevel:      "warn",
		WatchDebounce: 300 * time.Millisecond,
	}
}

// Load reads the config at path. An empty path looks for DefaultFile in the
// working directory and falls back to Default when it does not exist; an
// explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.resolve(filepath.Dir(path))
	return cfg, nil
}

// Parse decodes config YAML over the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values. Call again after applying flag overrides.
func (c *Config) Validate() error {
	err := configValidate.Struct(c)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	key := fe.Field()
	switch fe.Tag() {
	case "required":
		return key + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", key, fe.Param(), fe.Value())
	case "jsonfile":
		return fmt.Sprintf("%s must name a .json file, got %q", key, fe.Value())
	case "min", "max":
		return fmt.Sprintf("%s is out of range (%s %s)", key, fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", key, fe.Tag())
	}
}

// LedgerPath returns the configured ledger, or DefaultLedgerName inside the
// model directory.
func (c *Config) LedgerPath() string {
	if c.Ledger != "" {
		return c.Ledger
	}
	return filepath.Join(c.Model, DefaultLedgerName)
}

// SlogLevel maps LogLevel to a slog level. Unknown values map to warn.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// resolve makes relative paths relative to dir.
func (c *Config) resolve(dir string) {
	for _, p := range []*string{&c.Model, &c.Ledger, &c.History} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

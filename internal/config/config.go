// Package config loads textmap settings from the environment.
//
// Values come from process environment variables prefixed with TEXTMAP_,
// optionally seeded from a .env file. Command-line flags in cmd/textmap-mcp
// are applied on top of the loaded values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ironsheep/textmap-mcp/internal/logger"
)

// Environment variable names.
const (
	EnvLogLevel       = "TEXTMAP_LOG_LEVEL"
	EnvLanguage       = "TEXTMAP_LANGUAGE"
	EnvTessdataPrefix = "TEXTMAP_TESSDATA_PREFIX"
	EnvPreprocess     = "TEXTMAP_PREPROCESS"
	EnvMinConfidence  = "TEXTMAP_MIN_CONFIDENCE"
	EnvCaptureCommand = "TEXTMAP_CAPTURE_COMMAND"
	EnvCaptureTimeout = "TEXTMAP_CAPTURE_TIMEOUT"
	EnvWorkDir        = "TEXTMAP_WORK_DIR"
)

// OutputPlaceholder is replaced in CaptureCommand arguments with the path the
// capture tool must write its image to.
const OutputPlaceholder = "{output}"

// Config holds runtime settings.
type Config struct {
	LogLevel string

	// Language is the Tesseract language code, e.g. "eng" or "eng+deu".
	Language string

	// TessdataPrefix overrides the directory Tesseract reads traineddata from.
	TessdataPrefix string

	// Preprocess converts images to high-contrast grayscale before recognition.
	Preprocess bool

	// MinConfidence drops recognized words below this score (0.0 to 1.0).
	MinConfidence float64

	// CaptureCommand is the argv of an external still-capture tool. Empty
	// means no camera is available.
	CaptureCommand []string

	CaptureTimeout time.Duration

	// WorkDir receives captured and edited images. A capture or edit is
	// deleted once a later selection replaces it; the file backing the
	// current screen is kept, including at exit.
	WorkDir string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel:       "info",
		Language:       "eng",
		MinConfidence:  0,
		CaptureTimeout: 60 * time.Second,
		WorkDir:        filepath.Join(os.TempDir(), "textmap-mcp"),
	}
}

// Load reads envFile (if it exists) into the process environment and builds
// a Config from the defaults overlaid with TEXTMAP_ variables. A missing
// envFile is not an error.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config using getenv for lookups.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()

	if v := getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv(EnvLanguage); v != "" {
		cfg.Language = v
	}
	cfg.TessdataPrefix = getenv(EnvTessdataPrefix)
	if v := getenv(EnvPreprocess); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s must be a boolean, got %q", EnvPreprocess, v)
		}
		cfg.Preprocess = b
	}
	if v := getenv(EnvMinConfidence); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("%s must be a number, got %q", EnvMinConfidence, v)
		}
		cfg.MinConfidence = f
	}
	if v := getenv(EnvCaptureCommand); v != "" {
		cfg.CaptureCommand = SplitCommand(v)
	}
	if v := getenv(EnvCaptureTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s must be a duration, got %q", EnvCaptureTimeout, v)
		}
		cfg.CaptureTimeout = d
	}
	if v := getenv(EnvWorkDir); v != "" {
		cfg.WorkDir = v
	}

	return cfg, nil
}

// SplitCommand splits a command line on whitespace. Quoting is not supported.
func SplitCommand(s string) []string {
	return strings.Fields(s)
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if strings.TrimSpace(c.Language) == "" {
		return errors.New("language must not be empty")
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min confidence must be between 0 and 1, got %g", c.MinConfidence)
	}
	if c.CaptureTimeout <= 0 {
		return fmt.Errorf("capture timeout must be positive, got %s", c.CaptureTimeout)
	}
	if len(c.CaptureCommand) > 0 && !c.hasOutputPlaceholder() {
		return fmt.Errorf("capture command must contain %s", OutputPlaceholder)
	}
	if c.WorkDir == "" {
		return errors.New("work dir must not be empty")
	}
	return nil
}

func (c Config) hasOutputPlaceholder() bool {
	for _, arg := range c.CaptureCommand {
		if strings.Contains(arg, OutputPlaceholder) {
			return true
		}
	}
	return false
}

// Level returns the parsed log level.
func (c Config) Level() logger.Level {
	return logger.ParseLevel(c.LogLevel)
}

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/ironsheep/textmap-mcp/internal/logger"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envMap(nil))
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	def := Default()
	if !reflect.DeepEqual(cfg, def) {
		t.Errorf("got %+v, want defaults %+v", cfg, def)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		EnvLogLevel:       "debug",
		EnvLanguage:       "eng+deu",
		EnvTessdataPrefix: "/opt/tessdata",
		EnvPreprocess:     "true",
		EnvMinConfidence:  "0.4",
		EnvCaptureCommand: "fswebcam -r 1280x720 --no-banner {output}",
		EnvCaptureTimeout: "5s",
		EnvWorkDir:        "/var/tmp/textmap",
	}))
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}

	if cfg.Level() != logger.LevelDebug {
		t.Errorf("Level: got %v, want debug", cfg.Level())
	}
	if cfg.Language != "eng+deu" {
		t.Errorf("Language: got %q", cfg.Language)
	}
	if cfg.TessdataPrefix != "/opt/tessdata" {
		t.Errorf("TessdataPrefix: got %q", cfg.TessdataPrefix)
	}
	if !cfg.Preprocess {
		t.Error("Preprocess: got false, want true")
	}
	if cfg.MinConfidence != 0.4 {
		t.Errorf("MinConfidence: got %g, want 0.4", cfg.MinConfidence)
	}
	wantCmd := []string{"fswebcam", "-r", "1280x720", "--no-banner", "{output}"}
	if !reflect.DeepEqual(cfg.CaptureCommand, wantCmd) {
		t.Errorf("CaptureCommand: got %v, want %v", cfg.CaptureCommand, wantCmd)
	}
	if cfg.CaptureTimeout != 5*time.Second {
		t.Errorf("CaptureTimeout: got %s", cfg.CaptureTimeout)
	}
	if cfg.WorkDir != "/var/tmp/textmap" {
		t.Errorf("WorkDir: got %q", cfg.WorkDir)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestFromEnv_BadValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"preprocess", EnvPreprocess, "maybe"},
		{"min confidence", EnvMinConfidence, "high"},
		{"timeout", EnvCaptureTimeout, "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromEnv(envMap(map[string]string{tt.key: tt.val})); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.val)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"language", func(c *Config) { c.Language = " " }},
		{"confidence low", func(c *Config) { c.MinConfidence = -0.1 }},
		{"confidence high", func(c *Config) { c.MinConfidence = 1.5 }},
		{"timeout", func(c *Config) { c.CaptureTimeout = 0 }},
		{"capture placeholder", func(c *Config) { c.CaptureCommand = []string{"fswebcam", "out.jpg"} }},
		{"work dir", func(c *Config) { c.WorkDir = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("TEXTMAP_LANGUAGE=fra\n"), 0644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Setenv(EnvLanguage, "")
	os.Unsetenv(EnvLanguage)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Language != "fra" {
		t.Errorf("Language: got %q, want fra", cfg.Language)
	}
}

func TestLoad_MissingEnvFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("missing env file should not fail: %v", err)
	}
}

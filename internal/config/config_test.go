package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultsAreValid(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestDefaults_SlowUploadFits(t *testing.T) {
	cfg := Defaults()
	// a client at 256 KB/s must be able to send the largest accepted upload
	const slowClient = 256 << 10
	need := time.Duration(cfg.MaxUploadBytes/slowClient) * time.Second
	if cfg.ReadTimeout < need {
		t.Errorf("ReadTimeout %s is too short for %d bytes at 256 KB/s (needs %s)", cfg.ReadTimeout, cfg.MaxUploadBytes, need)
	}
	if cfg.WriteTimeout <= cfg.ReadTimeout+cfg.EngineTimeout {
		t.Errorf("WriteTimeout %s must cover upload and engine run", cfg.WriteTimeout)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("MAX_FILE_SIZE", "1048576")
	t.Setenv("ENGINE_TIMEOUT", "90s")
	t.Setenv("GS_EXPLICIT_IMAGE_FLAGS", "false")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("RATE_LIMIT_BURST", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8081" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.MaxUploadBytes != 1<<20 {
		t.Errorf("MaxUploadBytes = %d", cfg.MaxUploadBytes)
	}
	if cfg.EngineTimeout != 90*time.Second {
		t.Errorf("EngineTimeout = %s", cfg.EngineTimeout)
	}
	if !cfg.PresetOnly {
		t.Error("GS_EXPLICIT_IMAGE_FLAGS=false should select preset-only mode")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.RateLimitBurst != Defaults().RateLimitBurst {
		t.Errorf("invalid int should fall back, got %d", cfg.RateLimitBurst)
	}
}

func TestLoad_WorkerTimeoutSeconds(t *testing.T) {
	t.Setenv("WORKER_TIMEOUT", "45")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.EngineTimeout != 45*time.Second {
		t.Errorf("EngineTimeout = %s, want 45s", cfg.EngineTimeout)
	}
}

func TestLoad_YAMLFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `
port: "7000"
frontend_dir: /srv/frontend
engine_timeout: 3m
max_concurrent_requests: 8
preset_only: true
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7001")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "7001" {
		t.Errorf("env should win over file, Port = %q", cfg.Port)
	}
	if cfg.FrontendDir != "/srv/frontend" {
		t.Errorf("FrontendDir = %q", cfg.FrontendDir)
	}
	if cfg.EngineTimeout != 3*time.Minute {
		t.Errorf("EngineTimeout = %s", cfg.EngineTimeout)
	}
	if cfg.MaxConcurrentRequests != 8 {
		t.Errorf("MaxConcurrentRequests = %d", cfg.MaxConcurrentRequests)
	}
	if !cfg.PresetOnly {
		t.Error("PresetOnly should come from the file")
	}
	if cfg.RateLimitBurst != Defaults().RateLimitBurst {
		t.Errorf("keys absent from the file keep defaults, got %d", cfg.RateLimitBurst)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty port", func(c *Config) { c.Port = "" }, "PORT"},
		{"zero upload", func(c *Config) { c.MaxUploadBytes = 0 }, "MAX_FILE_SIZE"},
		{"write timeout too short", func(c *Config) { c.WriteTimeout = time.Second }, "WRITE_TIMEOUT"},
		{"write timeout shorter than upload plus engine", func(c *Config) {
			c.ReadTimeout = 10 * time.Minute
			c.WriteTimeout = 11 * time.Minute
		}, "READ_TIMEOUT + ENGINE_TIMEOUT"},
		{"bad ratio", func(c *Config) { c.HealthDegradeRatio = 2 }, "HEALTH_DEGRADE_RATIO"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

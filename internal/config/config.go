package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Server
	Port        string `yaml:"port"`
	FrontendDir string `yaml:"frontend_dir"`
	WorkDir     string `yaml:"work_dir"`

	// Limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// Concurrency
	MaxConcurrentRequests int64 `yaml:"max_concurrent_requests"`

	// Server timeouts
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`

	// Ghostscript
	GhostscriptPath string        `yaml:"ghostscript_path"`
	EngineTimeout   time.Duration `yaml:"engine_timeout"`
	ProbeTimeout    time.Duration `yaml:"probe_timeout"`
	PresetOnly      bool          `yaml:"preset_only"`

	// rate limiting (per IP)
	RateLimitEvery time.Duration `yaml:"rate_limit_every"`
	RateLimitBurst int           `yaml:"rate_limit_burst"`

	// housekeeping
	CleanupInterval time.Duration `yaml:"cleanup_interval"`

	// health
	HealthDegradeRatio float64 `yaml:"health_degrade_ratio"`

	// http
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

func Defaults() Config {
	return Config{
		Port:        "5000",
		FrontendDir: "frontend/build",
		WorkDir:     os.TempDir(),

		MaxUploadBytes: 100 << 20,

		MaxConcurrentRequests: 4,

		// ReadTimeout covers the whole body; a max-size upload over a slow
		// link needs minutes, not seconds
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Minute,
		WriteTimeout:      15 * time.Minute,
		IdleTimeout:       60 * time.Second,

		EngineTimeout: 120 * time.Second,
		ProbeTimeout:  5 * time.Second,

		RateLimitEvery: 600 * time.Millisecond,
		RateLimitBurst: 20,

		CleanupInterval: 5 * time.Minute,

		HealthDegradeRatio: 0.9,

		MaxHeaderBytes: 1 << 20,

		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load starts from Defaults, overlays the YAML file named by CONFIG_FILE (if
// any), then applies environment variables.
func Load() (Config, error) {
	cfg := Defaults()

	if path := envStr("CONFIG_FILE", ""); path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// LoadFile overlays the YAML document at path onto cfg. Keys absent from the
// file keep their current value.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(c *Config) {
	c.Port = envStr("PORT", c.Port)
	c.FrontendDir = envStr("FRONTEND_DIR", c.FrontendDir)
	c.WorkDir = envStr("WORK_DIR", c.WorkDir)

	c.MaxUploadBytes = int64(envInt("MAX_FILE_SIZE", int(c.MaxUploadBytes)))

	c.MaxConcurrentRequests = int64(envInt("MAX_CONCURRENT_REQUESTS", int(c.MaxConcurrentRequests)))

	c.ReadHeaderTimeout = envDur("READ_HEADER_TIMEOUT", c.ReadHeaderTimeout)
	c.ReadTimeout = envDur("READ_TIMEOUT", c.ReadTimeout)
	c.WriteTimeout = envDur("WRITE_TIMEOUT", c.WriteTimeout)
	c.IdleTimeout = envDur("IDLE_TIMEOUT", c.IdleTimeout)

	c.GhostscriptPath = envStr("GHOSTSCRIPT_PATH", c.GhostscriptPath)
	// WORKER_TIMEOUT is plain seconds; ENGINE_TIMEOUT wins when both are set
	c.EngineTimeout = envSeconds("WORKER_TIMEOUT", c.EngineTimeout)
	c.EngineTimeout = envDur("ENGINE_TIMEOUT", c.EngineTimeout)
	c.ProbeTimeout = envDur("PROBE_TIMEOUT", c.ProbeTimeout)
	c.PresetOnly = !envBool("GS_EXPLICIT_IMAGE_FLAGS", !c.PresetOnly)

	c.RateLimitEvery = envDur("RATE_LIMIT_EVERY", c.RateLimitEvery)
	c.RateLimitBurst = envInt("RATE_LIMIT_BURST", c.RateLimitBurst)

	c.CleanupInterval = envDur("CLEANUP_INTERVAL", c.CleanupInterval)

	c.HealthDegradeRatio = envFloat("HEALTH_DEGRADE_RATIO", c.HealthDegradeRatio)

	c.MaxHeaderBytes = envInt("MAX_HEADER_BYTES", c.MaxHeaderBytes)

	c.LogLevel = strings.ToLower(envStr("LOG_LEVEL", c.LogLevel))
	c.LogFormat = strings.ToLower(envStr("LOG_FORMAT", c.LogFormat))
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_FILE_SIZE must be positive"))
	}
	if c.MaxConcurrentRequests <= 0 {
		errs = append(errs, errors.New("MAX_CONCURRENT_REQUESTS must be positive"))
	}
	if c.EngineTimeout <= 0 {
		errs = append(errs, errors.New("ENGINE_TIMEOUT must be positive"))
	}
	// WriteTimeout runs from the end of the headers, so it spans the upload
	// as well as the engine run.
	if c.WriteTimeout > 0 {
		switch {
		case c.WriteTimeout <= c.EngineTimeout:
			errs = append(errs, fmt.Errorf("WRITE_TIMEOUT (%s) must exceed ENGINE_TIMEOUT (%s)", c.WriteTimeout, c.EngineTimeout))
		case c.ReadTimeout > 0 && c.WriteTimeout <= c.ReadTimeout+c.EngineTimeout:
			errs = append(errs, fmt.Errorf("WRITE_TIMEOUT (%s) must exceed READ_TIMEOUT + ENGINE_TIMEOUT (%s)", c.WriteTimeout, c.ReadTimeout+c.EngineTimeout))
		}
	}
	if c.HealthDegradeRatio <= 0 || c.HealthDegradeRatio > 1 {
		errs = append(errs, errors.New("HEALTH_DEGRADE_RATIO must be in (0, 1]"))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

func envStr(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}

func envDur(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func envSeconds(key string, fallback time.Duration) time.Duration {
	n := envInt(key, 0)
	if n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// Package config reads runtime configuration from the environment.
// Every knob has a working default so a bare `snap-engine` starts.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Config holds everything the process needs, resolved once at startup.
type Config struct {
	Host string
	Port int

	// Workers is the extraction pool size. Extraction is dominated by
	// outbound network waits, so 2x the CPU count is the default.
	Workers int
	// QueueSize bounds pending submissions; a full queue rejects the
	// request instead of buffering without limit.
	QueueSize int
	// RequestTimeoutSec caps how long a request waits for its result.
	RequestTimeoutSec int

	// RatePerSecond and RateBurst feed the global extract-route limiter.
	RatePerSecond float64
	RateBurst     int

	// Extractor profile.
	YtDlpPath        string
	SocketTimeoutSec int
	Retries          int
	ClientProfile    string
	SkipManifests    bool
	GeoBypass        bool
	ForceIPv4        bool
	NoCheckCert      bool

	Debug bool
}

// FromEnv builds a Config from SNAP_* environment variables, falling
// back to defaults for anything unset.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Host:          envOr("SNAP_HOST", "0.0.0.0"),
		YtDlpPath:     envOr("SNAP_YTDLP_PATH", "yt-dlp"),
		ClientProfile: envOr("SNAP_CLIENT_PROFILE", defaultUserAgent),
		SkipManifests: envBool("SNAP_SKIP_MANIFESTS", true),
		GeoBypass:     envBool("SNAP_GEO_BYPASS", true),
		ForceIPv4:     envBool("SNAP_FORCE_IPV4", true),
		NoCheckCert:   envBool("SNAP_NO_CHECK_CERT", true),
		Debug:         envBool("SNAP_DEBUG", false),
	}

	var err error
	if cfg.Port, err = envInt("SNAP_PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.Workers, err = envInt("SNAP_WORKERS", runtime.NumCPU()*2); err != nil {
		return nil, err
	}
	if cfg.QueueSize, err = envInt("SNAP_QUEUE_SIZE", 64); err != nil {
		return nil, err
	}
	if cfg.RequestTimeoutSec, err = envInt("SNAP_REQUEST_TIMEOUT", 120); err != nil {
		return nil, err
	}
	if cfg.RateBurst, err = envInt("SNAP_RATE_BURST", 20); err != nil {
		return nil, err
	}
	if cfg.SocketTimeoutSec, err = envInt("SNAP_SOCKET_TIMEOUT", 15); err != nil {
		return nil, err
	}
	if cfg.Retries, err = envInt("SNAP_RETRIES", 5); err != nil {
		return nil, err
	}
	if cfg.RatePerSecond, err = envFloat("SNAP_RATE_PER_SECOND", 10); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values are usable before anything is wired up.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("worker count must be positive, got %d", c.Workers)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("queue size must be positive, got %d", c.QueueSize)
	}
	if c.SocketTimeoutSec <= 0 {
		return fmt.Errorf("socket timeout must be positive, got %d", c.SocketTimeoutSec)
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries cannot be negative, got %d", c.Retries)
	}
	if c.YtDlpPath == "" {
		return fmt.Errorf("yt-dlp path cannot be empty")
	}
	return nil
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q: %w", key, v, err)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q: %w", key, v, err)
	}
	return f, nil
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// Package config loads engine configuration from the environment, with an
// optional YAML file overlay.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the voxnote engine.
type Config struct {
	// Gemini API access.
	GeminiAPIKey    string `yaml:"gemini_api_key"`
	TranscribeModel string `yaml:"transcribe_model"`
	FormatModel     string `yaml:"format_model"`

	// Live streaming endpoint (ws:// or wss://); empty disables live capture.
	StreamEndpoint string `yaml:"stream_endpoint"`
	StreamAPIKey   string `yaml:"stream_api_key"`
	// SnapshotStream marks a backend that resends the full growing
	// hypothesis instead of deltas.
	SnapshotStream bool `yaml:"snapshot_stream"`

	// Audio input shape.
	SampleRate int `yaml:"sample_rate"`
	Channels   int `yaml:"channels"`
	FrameMs    int `yaml:"frame_ms"`

	// Batch ingestion: 0 means unbounded.
	MaxConcurrentFiles int `yaml:"max_concurrent_files"`

	// Export.
	ExportHeader  bool          `yaml:"export_header"`
	ExportStagger time.Duration `yaml:"export_stagger"`
	ExportDir     string        `yaml:"export_dir"`
}

// Load builds the config from the environment, then overlays the YAML file
// named by VOXNOTE_CONFIG (if set) and validates the result.
func Load() (Config, error) {
	cfg := FromEnv()

	if path := strings.TrimSpace(os.Getenv("VOXNOTE_CONFIG")); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv builds the config from environment variables with defaults.
func FromEnv() Config {
	return Config{
		GeminiAPIKey:       envOr("GEMINI_API_KEY", ""),
		TranscribeModel:    envOr("VOXNOTE_TRANSCRIBE_MODEL", ""),
		FormatModel:        envOr("VOXNOTE_FORMAT_MODEL", ""),
		StreamEndpoint:     envOr("VOXNOTE_STREAM_ENDPOINT", ""),
		StreamAPIKey:       envOr("VOXNOTE_STREAM_API_KEY", ""),
		SnapshotStream:     envBoolOr("VOXNOTE_SNAPSHOT_STREAM", false),
		SampleRate:         envIntOr("VOXNOTE_SAMPLE_RATE", 16000),
		Channels:           envIntOr("VOXNOTE_CHANNELS", 1),
		FrameMs:            envIntOr("VOXNOTE_FRAME_MS", 40),
		MaxConcurrentFiles: envIntOr("VOXNOTE_MAX_CONCURRENT_FILES", 4),
		ExportHeader:       envBoolOr("VOXNOTE_EXPORT_HEADER", true),
		ExportStagger:      envDurationOr("VOXNOTE_EXPORT_STAGGER", 250*time.Millisecond),
		ExportDir:          envOr("VOXNOTE_EXPORT_DIR", "."),
	}
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}
	return nil
}

// Validate rejects configs the engine cannot run with.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be > 0")
	}
	if c.Channels != 1 && c.Channels != 2 {
		return fmt.Errorf("channels must be 1 or 2")
	}
	if c.FrameMs <= 0 {
		return fmt.Errorf("frame_ms must be > 0")
	}
	if c.MaxConcurrentFiles < 0 {
		return fmt.Errorf("max_concurrent_files must be >= 0")
	}
	if c.ExportStagger < 0 {
		return fmt.Errorf("export_stagger must be >= 0")
	}
	if c.StreamEndpoint != "" &&
		!strings.HasPrefix(c.StreamEndpoint, "ws://") &&
		!strings.HasPrefix(c.StreamEndpoint, "wss://") {
		return fmt.Errorf("stream_endpoint must be a ws:// or wss:// URL")
	}
	return nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envIntOr(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func envBoolOr(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	switch strings.ToLower(raw) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return def
	}
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

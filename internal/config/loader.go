// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ManuGH/camprobe/internal/log"
)

// Defaults.
const (
	DefaultHostName       = "Unnamed Device"
	DefaultONVIFPort      = 80
	DefaultInterval       = 60 * time.Second
	DefaultStreamTimeout  = 5 * time.Second
	DefaultONVIFTimeout   = 10 * time.Second
	DefaultRTSPTransport  = "tcp"
	DefaultMetricsListen  = ":8000"
	DefaultLogLevel       = "info"
	DefaultServiceName    = "camprobe"
	DefaultExporter       = "grpc"
	DefaultSamplingRate   = 1.0
	defaultDotEnvFileName = ".env"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath string
	version    string
}

// NewLoader creates a new configuration loader. configPath may be empty,
// in which case only defaults and environment are used.
func NewLoader(configPath, version string) *Loader {
	return &Loader{configPath: configPath, version: version}
}

// Load loads configuration with precedence: ENV > File > Defaults.
// Order: .env -> defaults -> file (strict) -> env -> ffprobe resolution -> validate.
func (l *Loader) Load() (Config, error) {
	if err := l.loadDotEnv(); err != nil {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	cfg := defaults()

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := mergeFileConfig(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("merge file config: %w", err)
		}
	}

	mergeEnvConfig(&cfg)
	cfg.FFprobePath = ResolveFFprobeBin(cfg.FFprobePath, cfg.FFmpegPath)
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, err
	}

	logger := log.WithComponent("config")
	logger.Info().
		Str(log.FieldEvent, "config.loaded").
		Str(log.FieldConfigPath, l.configPath).
		Int("hosts", len(cfg.Hosts)).
		Str("ffprobe", cfg.FFprobePath).
		Dur("interval", cfg.Interval).
		Msg("configuration loaded")
	return cfg, nil
}

func defaults() Config {
	return Config{
		Interval:      DefaultInterval,
		StreamTimeout: DefaultStreamTimeout,
		ONVIFTimeout:  DefaultONVIFTimeout,
		RTSPTransport: DefaultRTSPTransport,
		MetricsListen: DefaultMetricsListen,
		Log: LogConfig{
			Level:   DefaultLogLevel,
			Service: DefaultServiceName,
		},
		Telemetry: TelemetryConfig{
			Exporter:     DefaultExporter,
			SamplingRate: DefaultSamplingRate,
		},
	}
}

// loadDotEnv loads CAMPROBE_ENV_FILE, or a .env next to the config file.
// Variables already present in the environment are never overwritten. A
// missing default .env is not an error; a missing explicit one is.
func (l *Loader) loadDotEnv() error {
	if explicit := strings.TrimSpace(os.Getenv(EnvEnvFile)); explicit != "" {
		return godotenv.Load(explicit)
	}

	dir := "."
	if l.configPath != "" {
		dir = filepath.Dir(l.configPath)
	}
	path := filepath.Join(dir, defaultDotEnvFileName)
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return godotenv.Load(path)
}

// loadFile loads configuration from a YAML (or JSON) file with STRICT parsing.
// Unknown fields will cause a fatal error to prevent misconfiguration.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" && ext != ".json" {
		return nil, fmt.Errorf("unsupported config format: %s (yaml, yml or json)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return parseFile(data)
}

func parseFile(data []byte) (*FileConfig, error) {
	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "not found in type") {
			return nil, fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	// Strict: Ensure no multiple documents or trailing content
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return &fileCfg, nil
}

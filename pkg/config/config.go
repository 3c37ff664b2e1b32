// Package config loads the settings shared by the voicedenoise commands
// from a YAML file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/audio/pkg/audio"
	"github.com/xaionaro-go/voicedenoise/pkg/denoiser"
	"github.com/xaionaro-go/voicedenoise/pkg/noisesuppression"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel string `yaml:"log_level"`

	// Model is the human-readable name of the denoising model.
	Model string `yaml:"model"`

	VADThreshold float32       `yaml:"vad_threshold"`
	VADRelease   time.Duration `yaml:"vad_release"`

	Channels audio.Channel `yaml:"channels"`

	// BlockSize is the amount of samples per channel in one block.
	BlockSize int `yaml:"block_size"`

	Server  ServerConfig  `yaml:"server"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`

	// MaxSessions limits the amount of concurrent connections; zero means
	// no limit.
	MaxSessions uint `yaml:"max_sessions"`

	// IdleCacheSize is the amount of engines kept for reuse after their
	// connections are closed.
	IdleCacheSize uint `yaml:"idle_cache_size"`
}

type MetricsConfig struct {
	// ListenAddr is where the Prometheus endpoint is served; empty disables it.
	ListenAddr string `yaml:"listen_addr"`
}

func Default() *Config {
	params := noisesuppression.DefaultParams()
	return &Config{
		LogLevel:     logger.LevelWarning.String(),
		Model:        denoiser.DefaultModelName,
		VADThreshold: params.VADThreshold,
		VADRelease:   params.VADRelease,
		Channels:     1,
		BlockSize:    int(denoiser.FrameSize),
		Server: ServerConfig{
			ListenAddr:    ":8080",
			MaxSessions:   16,
			IdleCacheSize: 4,
		},
	}
}

// Load reads the YAML file at path on top of Default and validates the result.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate returns all the problems found in cfg joined into one error.
func Validate(cfg *Config) error {
	var errs []error

	if _, err := cfg.Level(); err != nil {
		errs = append(errs, fmt.Errorf("log_level %q is invalid: %w", cfg.LogLevel, err))
	}
	if !denoiser.IsKnownModel(cfg.Model) {
		errs = append(errs, fmt.Errorf("model %q is unknown; valid values: %s", cfg.Model, strings.Join(denoiser.AvailableModels(), ", ")))
	}
	if err := cfg.Params().Validate(); err != nil {
		errs = append(errs, err)
	}
	if cfg.Channels == 0 {
		errs = append(errs, noisesuppression.ErrInvalidChannels{Channels: cfg.Channels})
	}
	if cfg.BlockSize <= 0 {
		errs = append(errs, fmt.Errorf("block_size must be positive, got %d", cfg.BlockSize))
	}
	if cfg.Server.ListenAddr == "" {
		errs = append(errs, fmt.Errorf("server.listen_addr is empty"))
	}

	return errors.Join(errs...)
}

func (cfg *Config) Level() (logger.Level, error) {
	var level logger.Level
	err := level.Set(cfg.LogLevel)
	return level, err
}

func (cfg *Config) Params() noisesuppression.Params {
	return noisesuppression.Params{
		VADThreshold: cfg.VADThreshold,
		VADRelease:   cfg.VADRelease,
	}
}

package config

import (
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/audio/pkg/audio"
)

// Flags are the command line overrides of a Config.
type Flags struct {
	ConfigPath string

	logLevel          logger.Level
	model             string
	vadThreshold      float32
	vadRelease        time.Duration
	channels          uint
	blockSize         int
	listenAddr        string
	maxSessions       uint
	idleCacheSize     uint
	metricsListenAddr string

	flagSet *pflag.FlagSet
}

func RegisterFlags(flagSet *pflag.FlagSet) *Flags {
	def := Default()
	f := &Flags{flagSet: flagSet}
	f.logLevel, _ = def.Level()
	flagSet.StringVar(&f.ConfigPath, "config", "", "path to a YAML config file")
	flagSet.Var(&f.logLevel, "log-level", "Log level")
	flagSet.StringVar(&f.model, "model", def.Model, "denoising model, see --list-models")
	flagSet.Float32Var(&f.vadThreshold, "vad-threshold", def.VADThreshold, "voice probability [0, 1] a frame needs to pass the gate")
	flagSet.DurationVar(&f.vadRelease, "vad-release", def.VADRelease, "how long the gate stays open after the last voice frame")
	flagSet.UintVar(&f.channels, "channels", uint(def.Channels), "amount of interleaved channels")
	flagSet.IntVar(&f.blockSize, "block-size", def.BlockSize, "samples per channel in one block")
	flagSet.StringVar(&f.listenAddr, "listen-addr", def.Server.ListenAddr, "address the daemon listens at")
	flagSet.UintVar(&f.maxSessions, "max-sessions", def.Server.MaxSessions, "limit of concurrent sessions, 0 for no limit")
	flagSet.UintVar(&f.idleCacheSize, "idle-cache-size", def.Server.IdleCacheSize, "amount of engines kept for reuse")
	flagSet.StringVar(&f.metricsListenAddr, "metrics-listen-addr", def.Metrics.ListenAddr, "address to serve Prometheus metrics at, empty to disable")
	return f
}

// Load reads the config file (if any), applies the flags set explicitly and
// validates the result.
func (f *Flags) Load() (*Config, error) {
	cfg := Default()
	if f.ConfigPath != "" {
		var err error
		cfg, err = Load(f.ConfigPath)
		if err != nil {
			return nil, err
		}
	}
	f.apply(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (f *Flags) apply(cfg *Config) {
	changed := f.flagSet.Changed
	if changed("log-level") {
		cfg.LogLevel = f.logLevel.String()
	}
	if changed("model") {
		cfg.Model = f.model
	}
	if changed("vad-threshold") {
		cfg.VADThreshold = f.vadThreshold
	}
	if changed("vad-release") {
		cfg.VADRelease = f.vadRelease
	}
	if changed("channels") {
		cfg.Channels = audio.Channel(f.channels)
	}
	if changed("block-size") {
		cfg.BlockSize = f.blockSize
	}
	if changed("listen-addr") {
		cfg.Server.ListenAddr = f.listenAddr
	}
	if changed("max-sessions") {
		cfg.Server.MaxSessions = f.maxSessions
	}
	if changed("idle-cache-size") {
		cfg.Server.IdleCacheSize = f.idleCacheSize
	}
	if changed("metrics-listen-addr") {
		cfg.Metrics.ListenAddr = f.metricsListenAddr
	}
}

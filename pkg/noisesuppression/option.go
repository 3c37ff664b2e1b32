package noisesuppression

import (
	"github.com/xaionaro-go/voicedenoise/pkg/denoiser"
)

type config struct {
	Model   string
	Metrics *Metrics
}

func defaultConfig() config {
	return config{
		Model: denoiser.DefaultModelName,
	}
}

type Option interface {
	apply(*config)
}

type Options []Option

func (opts Options) apply(cfg *config) {
	for _, opt := range opts {
		opt.apply(cfg)
	}
}

func (opts Options) config() config {
	cfg := defaultConfig()
	opts.apply(&cfg)
	return cfg
}

// OptionModel selects the initial model by its human-readable name.
type OptionModel string

func (opt OptionModel) apply(cfg *config) {
	cfg.Model = string(opt)
}

// OptionMetrics makes the engine record its activity; nil disables it.
type OptionMetrics struct {
	Metrics *Metrics
}

func (opt OptionMetrics) apply(cfg *config) {
	cfg.Metrics = opt.Metrics
}

package server

import (
	"github.com/xaionaro-go/audio/pkg/audio"
	"github.com/xaionaro-go/voicedenoise/pkg/denoiser"
	"github.com/xaionaro-go/voicedenoise/pkg/noisesuppression"
)

type config struct {
	EngineOptions   noisesuppression.Options
	Metrics         *Metrics
	DefaultModel    string
	DefaultChannels audio.Channel
	DefaultParams   noisesuppression.Params
}

func defaultConfig() config {
	return config{
		DefaultModel:    denoiser.DefaultModelName,
		DefaultChannels: 1,
		DefaultParams:   noisesuppression.DefaultParams(),
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

// OptionEngineOptions is passed to every engine the server creates.
type OptionEngineOptions noisesuppression.Options

func (opt OptionEngineOptions) apply(cfg *config) {
	cfg.EngineOptions = noisesuppression.Options(opt)
}

type OptionMetrics struct {
	Metrics *Metrics
}

func (opt OptionMetrics) apply(cfg *config) {
	cfg.Metrics = opt.Metrics
}

// OptionDefaultModel is used when a connection does not request a model.
type OptionDefaultModel string

func (opt OptionDefaultModel) apply(cfg *config) {
	cfg.DefaultModel = string(opt)
}

type OptionDefaultChannels audio.Channel

func (opt OptionDefaultChannels) apply(cfg *config) {
	cfg.DefaultChannels = audio.Channel(opt)
}

type OptionDefaultParams noisesuppression.Params

func (opt OptionDefaultParams) apply(cfg *config) {
	cfg.DefaultParams = noisesuppression.Params(opt)
}

package noisesuppression

import (
	"context"
	"sync"

	"github.com/xaionaro-go/voicedenoise/pkg/denoiser"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/xaionaro-go/voicedenoise"

// Metrics holds the OpenTelemetry instruments of the engines. A nil
// *Metrics records nothing.
type Metrics struct {
	// FramesProcessed counts frames passed through a denoiser.
	FramesProcessed metric.Int64Counter

	// FramesGated counts frames replaced by silence by the gate.
	FramesGated metric.Int64Counter

	// VADProbability is the distribution of the per-frame voice probability.
	VADProbability metric.Float64Histogram

	// DenoiserCreated counts denoiser state (re)creations.
	DenoiserCreated metric.Int64Counter

	// ModelSwitches counts effective model changes.
	ModelSwitches metric.Int64Counter
}

var probabilityBuckets = []float64{
	0.05, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95,
}

func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.FramesProcessed, err = m.Int64Counter("voicedenoise.frames.processed",
		metric.WithDescription("Frames passed through the denoiser."),
	); err != nil {
		return nil, err
	}
	if met.FramesGated, err = m.Int64Counter("voicedenoise.frames.gated",
		metric.WithDescription("Frames silenced by the VAD gate."),
	); err != nil {
		return nil, err
	}
	if met.VADProbability, err = m.Float64Histogram("voicedenoise.vad.probability",
		metric.WithDescription("Voice activity probability reported per frame."),
		metric.WithExplicitBucketBoundaries(probabilityBuckets...),
	); err != nil {
		return nil, err
	}
	if met.DenoiserCreated, err = m.Int64Counter("voicedenoise.denoiser.created",
		metric.WithDescription("Denoiser states created."),
	); err != nil {
		return nil, err
	}
	if met.ModelSwitches, err = m.Int64Counter("voicedenoise.model.switches",
		metric.WithDescription("Changes of the selected model."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level Metrics bound to the global
// meter provider.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("noisesuppression: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// modelAttrs labels measurements with the catalog name of the model, so
// that unknown names do not create series of their own.
func modelAttrs(model string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("model", denoiser.CanonicalName(model)))
}

func (m *Metrics) recordFrame(
	ctx context.Context,
	attrs metric.MeasurementOption,
	voiceProbability float32,
	passed bool,
) {
	if m == nil {
		return
	}
	m.FramesProcessed.Add(ctx, 1, attrs)
	m.VADProbability.Record(ctx, float64(voiceProbability), attrs)
	if !passed {
		m.FramesGated.Add(ctx, 1, attrs)
	}
}

func (m *Metrics) recordDenoiserCreated(ctx context.Context, attrs metric.MeasurementOption) {
	if m == nil {
		return
	}
	m.DenoiserCreated.Add(ctx, 1, attrs)
}

func (m *Metrics) recordModelSwitch(ctx context.Context, attrs metric.MeasurementOption) {
	if m == nil {
		return
	}
	m.ModelSwitches.Add(ctx, 1, attrs)
}

// Package noisesuppression turns a frame-level denoiser into a streaming
// stage that accepts blocks of any size.
//
// Samples are accumulated into denoiser frames, each frame is denoised and
// passed through a VAD gate, and the results are handed back in exactly the
// block size of the call, delayed by the internal buffering. An Engine
// handles a single channel; use MultiChannel for interleaved audio.
package noisesuppression

import (
	"context"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/voicedenoise/pkg/denoiser"
	"github.com/xaionaro-go/xsync"
	"go.opentelemetry.io/otel/metric"
)

type Engine struct {
	Locker  xsync.Mutex
	Factory denoiser.Factory
	Metrics *Metrics

	// Model is the human-readable name of the selected model.
	Model string

	// State is nil until initialized, and again after Deinit, Reset or
	// a model switch.
	State denoiser.State

	Gate Gate

	pending sampleQueue
	ready   sampleQueue
	scratch []float32

	initFailed bool

	// metricAttrs follows Model.
	metricAttrs metric.MeasurementOption
}

func New(
	factory denoiser.Factory,
	opts ...Option,
) *Engine {
	cfg := Options(opts).config()
	return &Engine{
		Factory:     factory,
		Metrics:     cfg.Metrics,
		Model:       cfg.Model,
		scratch:     make([]float32, denoiser.FrameSize),
		metricAttrs: modelAttrs(cfg.Model),
	}
}

// AvailableModels lists the models that may be passed to SetModel.
func (*Engine) AvailableModels() []string {
	return denoiser.AvailableModels()
}

// Init (re)creates the denoiser state for the selected model.
func (e *Engine) Init(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Init")
	defer func() { logger.Debugf(ctx, "/Init: %v", _err) }()
	return xsync.DoR1(ctx, &e.Locker, func() error {
		e.releaseStateNoLock(ctx)
		return e.initStateNoLock(ctx)
	})
}

// Deinit releases the denoiser state. It may be called any amount of
// times; the queued audio is kept and the next Process recreates the state.
func (e *Engine) Deinit(ctx context.Context) error {
	logger.Debugf(ctx, "Deinit")
	e.Locker.Do(ctx, func() {
		e.releaseStateNoLock(ctx)
	})
	return nil
}

func (e *Engine) Close() error {
	return e.Deinit(context.TODO())
}

// Reset drops all the queued audio, closes the gate and releases the
// denoiser state, as if the engine was just created.
func (e *Engine) Reset(ctx context.Context) {
	logger.Debugf(ctx, "Reset")
	e.Locker.Do(ctx, func() {
		e.releaseStateNoLock(ctx)
		e.pending.Reset()
		e.ready.Reset()
		e.Gate.Reset()
	})
}

// SetModel selects a model by its human-readable name. The denoiser state
// is recreated on the next Process; already queued audio is not affected.
// Unknown names fall back to the built-in default model.
func (e *Engine) SetModel(ctx context.Context, name string) {
	e.Locker.Do(ctx, func() {
		if name == e.Model {
			return
		}
		logger.Debugf(ctx, "switching the model '%s' -> '%s'", e.Model, name)
		e.Model = name
		e.metricAttrs = modelAttrs(name)
		e.releaseStateNoLock(ctx)
		e.Metrics.recordModelSwitch(ctx, e.metricAttrs)
	})
}

func (e *Engine) CurrentModel(ctx context.Context) string {
	return xsync.DoR1(ctx, &e.Locker, func() string {
		return e.Model
	})
}

// BufferedSamples returns the amount of samples waiting for a complete
// frame and the amount of processed samples waiting to be returned.
func (e *Engine) BufferedSamples(ctx context.Context) (pending, ready int) {
	e.Locker.Do(ctx, func() {
		pending, ready = e.pending.Len(), e.ready.Len()
	})
	return
}

// Process consumes the block `in` of normalized samples and writes
// len(in) samples of denoised audio into `out`. `out` may be the same
// slice as `in`.
//
// A frame is silenced unless its voice probability is at least
// vadThreshold (in [0, 1]) or one of the previous vadReleaseFrames frames
// was. Calls must follow the order of the audio stream.
func (e *Engine) Process(
	ctx context.Context,
	out []float32,
	in []float32,
	vadThreshold float32,
	vadReleaseFrames uint,
) {
	if len(in) == 0 {
		return
	}
	assert(ctx, vadThreshold >= 0 && vadThreshold <= 1, "VAD threshold is out of range [0, 1]", vadThreshold)
	assert(ctx, len(out) >= len(in), "the output is shorter than the input", len(out), len(in))
	logger.Tracef(ctx, "Process(ctx, out[len:%d], in[len:%d], %v, %d)", len(out), len(in), vadThreshold, vadReleaseFrames)

	e.Locker.Do(xsync.WithNoLogging(ctx, true), func() {
		e.processNoLock(ctx, out[:len(in)], in, vadThreshold, vadReleaseFrames)
	})
}

func (e *Engine) processNoLock(
	ctx context.Context,
	out []float32,
	in []float32,
	vadThreshold float32,
	vadReleaseFrames uint,
) {
	if e.State == nil {
		err := e.initStateNoLock(ctx)
		switch {
		case err == nil:
			e.initFailed = false
		case !e.initFailed:
			logger.Errorf(ctx, "%v; emitting silence", err)
			e.initFailed = true
		}
	}

	if len(in) == denoiser.FrameSize && e.pending.Len() == 0 && e.ready.Len() == 0 {
		for i, v := range in {
			e.scratch[i] = v * denoiser.SampleScale
		}
		e.processFrameNoLock(ctx, out, e.scratch, vadThreshold, vadReleaseFrames)
		return
	}

	e.pending.PushScaled(in, denoiser.SampleScale)
	for e.pending.Len() >= denoiser.FrameSize {
		e.processFrameNoLock(
			ctx,
			e.ready.Grow(denoiser.FrameSize),
			e.pending.Front(denoiser.FrameSize),
			vadThreshold,
			vadReleaseFrames,
		)
		e.pending.Discard(denoiser.FrameSize)
	}

	n := e.ready.PopInto(out)
	clear(out[n:])
}

// processFrameNoLock denoises one frame of scaled samples and writes the
// gated, normalized result into `out`.
func (e *Engine) processFrameNoLock(
	ctx context.Context,
	out []float32,
	in []float32,
	vadThreshold float32,
	vadReleaseFrames uint,
) {
	if e.State == nil {
		clear(out)
		return
	}

	voiceProbability := e.State.ProcessFrame(out, in)
	passed := e.Gate.Advance(voiceProbability, vadThreshold, vadReleaseFrames)
	e.Metrics.recordFrame(ctx, e.metricAttrs, voiceProbability, passed)
	if !passed {
		clear(out)
		return
	}

	for i, v := range out {
		v /= denoiser.SampleScale
		switch {
		case v > 1:
			v = 1
		case v < -1:
			v = -1
		}
		out[i] = v
	}
}

func (e *Engine) initStateNoLock(ctx context.Context) error {
	model := denoiser.ResolveModel(e.Factory, e.Model)
	if model == nil && e.Model != denoiser.DefaultModelName {
		logger.Debugf(ctx, "model '%s' is not available, using the built-in default", e.Model)
	}
	state, err := e.Factory.NewState(ctx, model)
	if err != nil {
		return denoiser.ErrInitState{Model: e.Model, Err: err}
	}
	e.State = state
	e.Metrics.recordDenoiserCreated(ctx, e.metricAttrs)
	return nil
}

func (e *Engine) releaseStateNoLock(ctx context.Context) {
	if e.State == nil {
		return
	}
	if err := e.State.Close(); err != nil {
		logger.Errorf(ctx, "unable to close the denoiser state: %v", err)
	}
	e.State = nil
}

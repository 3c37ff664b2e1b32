package noisesuppression

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/audio/pkg/audio"
	"github.com/xaionaro-go/voicedenoise/pkg/denoiser"
	"golang.org/x/sync/errgroup"
)

// maxSequentialChannels is the largest amount of channels processed on the
// calling goroutine; more channels are processed in parallel.
const maxSequentialChannels = 2

// MultiChannel processes interleaved audio with an independent Engine per
// channel. ProcessInterleaved must not be called concurrently; the other
// methods may be called from any goroutine.
type MultiChannel struct {
	Engines []*Engine

	inputs  [][]float32
	outputs [][]float32
}

func NewMultiChannel(
	factory denoiser.Factory,
	channels audio.Channel,
	opts ...Option,
) (*MultiChannel, error) {
	if channels == 0 {
		return nil, ErrInvalidChannels{Channels: channels}
	}
	m := &MultiChannel{
		Engines: make([]*Engine, channels),
		inputs:  make([][]float32, channels),
		outputs: make([][]float32, channels),
	}
	for ch := range m.Engines {
		m.Engines[ch] = New(factory, opts...)
	}
	return m, nil
}

func (m *MultiChannel) Channels() audio.Channel {
	return audio.Channel(len(m.Engines))
}

// Init (re)creates the denoiser states of all the channels.
func (m *MultiChannel) Init(ctx context.Context) error {
	var mErr *multierror.Error
	for ch, e := range m.Engines {
		if err := e.Init(ctx); err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("channel %d: %w", ch, err))
		}
	}
	return mErr.ErrorOrNil()
}

func (m *MultiChannel) SetModel(ctx context.Context, name string) {
	for _, e := range m.Engines {
		e.SetModel(ctx, name)
	}
}

func (m *MultiChannel) CurrentModel(ctx context.Context) string {
	return m.Engines[0].CurrentModel(ctx)
}

func (m *MultiChannel) Reset(ctx context.Context) {
	for _, e := range m.Engines {
		e.Reset(ctx)
	}
}

func (m *MultiChannel) Close() error {
	var mErr *multierror.Error
	for ch, e := range m.Engines {
		if err := e.Close(); err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("unable to close the engine of channel %d: %w", ch, err))
		}
	}
	return mErr.ErrorOrNil()
}

// ProcessInterleaved denoises a block of interleaved samples into `out`
// (which may be the same slice as `in`).
func (m *MultiChannel) ProcessInterleaved(
	ctx context.Context,
	out []float32,
	in []float32,
	params Params,
) error {
	channels := len(m.Engines)
	if len(in)%channels != 0 {
		return ErrMisalignedBlock{Samples: len(in), Channels: channels}
	}
	if len(out) < len(in) {
		return ErrOutputTooShort{Have: len(out), Need: len(in)}
	}
	if err := params.Validate(); err != nil {
		return err
	}
	releaseFrames := params.ReleaseFrames()

	if channels == 1 {
		m.Engines[0].Process(ctx, out, in, params.VADThreshold, releaseFrames)
		return nil
	}

	blockLen := len(in) / channels
	for ch := range channels {
		m.inputs[ch] = resize(m.inputs[ch], blockLen)
		m.outputs[ch] = resize(m.outputs[ch], blockLen)
	}
	for i := range blockLen {
		for ch := range channels {
			m.inputs[ch][i] = in[i*channels+ch]
		}
	}

	if channels <= maxSequentialChannels {
		for ch, e := range m.Engines {
			e.Process(ctx, m.outputs[ch], m.inputs[ch], params.VADThreshold, releaseFrames)
		}
	} else {
		var g errgroup.Group
		for ch, e := range m.Engines {
			g.Go(func() error {
				e.Process(ctx, m.outputs[ch], m.inputs[ch], params.VADThreshold, releaseFrames)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	for i := range blockLen {
		for ch := range channels {
			out[i*channels+ch] = m.outputs[ch][i]
		}
	}
	logger.Tracef(ctx, "processed %d samples in %d channels", blockLen, channels)
	return nil
}

func resize(s []float32, n int) []float32 {
	if cap(s) < n {
		return make([]float32, n)
	}
	return s[:n]
}

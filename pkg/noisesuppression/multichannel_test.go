package noisesuppression_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/audio/pkg/audio"
	"github.com/xaionaro-go/voicedenoise/pkg/denoiser/mock"
	"github.com/xaionaro-go/voicedenoise/pkg/noisesuppression"
)

func interleave(channels ...[]float32) []float32 {
	result := make([]float32, 0, len(channels)*len(channels[0]))
	for i := range channels[0] {
		for _, ch := range channels {
			result = append(result, ch[i])
		}
	}
	return result
}

func deinterleave(in []float32, channels int) [][]float32 {
	result := make([][]float32, channels)
	for i, v := range in {
		result[i%channels] = append(result[i%channels], v)
	}
	return result
}

// positiveIsVoice treats frames that start with a positive sample as voice.
func positiveIsVoice(_ int, in []float32) float32 {
	if in[0] > 0 {
		return 1
	}
	return 0
}

func TestNewMultiChannelZeroChannels(t *testing.T) {
	_, err := noisesuppression.NewMultiChannel(&mock.Factory{}, 0)
	var chErr noisesuppression.ErrInvalidChannels
	require.ErrorAs(t, err, &chErr)
	assert.Zero(t, chErr.Channels)
}

func TestMultiChannelMono(t *testing.T) {
	ctx := context.Background()
	f := &mock.Factory{DefaultProbability: 1}
	m, err := noisesuppression.NewMultiChannel(f, 1)
	require.NoError(t, err)
	defer m.Close()

	in := signal(frameSize)
	out := make([]float32, frameSize)
	require.NoError(t, m.ProcessInterleaved(ctx, out, in, noisesuppression.DefaultParams()))
	assert.InDeltaSlice(t, float64s(in), float64s(out), 1e-6)
}

func TestMultiChannelIndependentGating(t *testing.T) {
	ctx := context.Background()
	f := &mock.Factory{ProbabilityFunc: positiveIsVoice}
	m, err := noisesuppression.NewMultiChannel(f, 2)
	require.NoError(t, err)
	defer m.Close()
	assert.EqualValues(t, 2, m.Channels())

	left := constant(frameSize*3, 0.5)
	right := constant(frameSize*3, -0.5)
	in := interleave(left, right)
	out := make([]float32, len(in))

	params := noisesuppression.Params{VADThreshold: 0.5}
	for pos := 0; pos < len(in); pos += 2 * 160 {
		require.NoError(t, m.ProcessInterleaved(ctx, out[pos:pos+2*160], in[pos:pos+2*160], params))
	}

	got := deinterleave(out, 2)
	// the first frame completes on the third block
	assert.Equal(t, constant(320, 0), got[0][:320])
	assert.InDeltaSlice(t, float64s(left[320:]), float64s(got[0][320:]), 1e-6)
	assert.Equal(t, constant(len(right), 0), got[1])

	for ch, e := range m.Engines {
		pending, ready := e.BufferedSamples(ctx)
		assert.Equal(t, 0, pending, "channel %d", ch)
		assert.Equal(t, 320, ready, "channel %d", ch)
	}
	assert.Equal(t, 6, f.FrameCount())
	assert.Len(t, f.States, 2)
}

func TestMultiChannelInPlace(t *testing.T) {
	ctx := context.Background()
	m, err := noisesuppression.NewMultiChannel(&mock.Factory{DefaultProbability: 1}, 3)
	require.NoError(t, err)
	defer m.Close()

	in := interleave(signal(frameSize), constant(frameSize, 0.1), constant(frameSize, -0.2))
	buf := append([]float32{}, in...)
	require.NoError(t, m.ProcessInterleaved(ctx, buf, buf, noisesuppression.Params{}))
	assert.InDeltaSlice(t, float64s(in), float64s(buf), 1e-6)
}

func TestMultiChannelErrors(t *testing.T) {
	ctx := context.Background()
	m, err := noisesuppression.NewMultiChannel(&mock.Factory{DefaultProbability: 1}, 2)
	require.NoError(t, err)
	defer m.Close()

	var misaligned noisesuppression.ErrMisalignedBlock
	err = m.ProcessInterleaved(ctx, make([]float32, 3), make([]float32, 3), noisesuppression.DefaultParams())
	require.ErrorAs(t, err, &misaligned)
	assert.Equal(t, noisesuppression.ErrMisalignedBlock{Samples: 3, Channels: 2}, misaligned)

	var tooShort noisesuppression.ErrOutputTooShort
	err = m.ProcessInterleaved(ctx, make([]float32, 2), make([]float32, 4), noisesuppression.DefaultParams())
	require.ErrorAs(t, err, &tooShort)
	assert.Equal(t, noisesuppression.ErrOutputTooShort{Have: 2, Need: 4}, tooShort)

	var invalid noisesuppression.ErrInvalidParams
	err = m.ProcessInterleaved(ctx, make([]float32, 4), make([]float32, 4), noisesuppression.Params{VADThreshold: 2})
	require.ErrorAs(t, err, &invalid)
	err = m.ProcessInterleaved(ctx, make([]float32, 4), make([]float32, 4), noisesuppression.Params{VADRelease: -time.Second})
	require.ErrorAs(t, err, &invalid)

	for _, e := range m.Engines {
		pending, ready := e.BufferedSamples(ctx)
		assert.Zero(t, pending+ready, "rejected blocks must not be consumed")
	}
}

func TestMultiChannelModelAndLifecycle(t *testing.T) {
	ctx := context.Background()
	errBroken := errors.New("broken")
	f := &mock.Factory{DefaultProbability: 1, Keys: map[string]float32{"lq": 1}}
	m, err := noisesuppression.NewMultiChannel(f, 2, noisesuppression.OptionModel("leavened-quisling-2018-08-31"))
	require.NoError(t, err)

	assert.Equal(t, "leavened-quisling-2018-08-31", m.CurrentModel(ctx))
	require.NoError(t, m.Init(ctx))
	require.Len(t, f.NewStateCalls, 2)
	for _, call := range f.NewStateCalls {
		assert.Equal(t, "lq", call.ModelKey)
	}

	m.SetModel(ctx, "marathon-prescription-2018-08-29")
	for _, e := range m.Engines {
		assert.Equal(t, "marathon-prescription-2018-08-29", e.CurrentModel(ctx))
	}
	assert.Empty(t, f.LiveStates())

	f.NewStateErr = errBroken
	err = m.Init(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, errBroken)
	f.NewStateErr = nil

	require.NoError(t, m.ProcessInterleaved(ctx, make([]float32, 200), signal(200), noisesuppression.DefaultParams()))
	m.Reset(ctx)
	for _, e := range m.Engines {
		pending, ready := e.BufferedSamples(ctx)
		assert.Zero(t, pending+ready)
	}

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.Empty(t, f.LiveStates())
}

func TestMultiChannelMatchesMonoEngines(t *testing.T) {
	ctx := context.Background()
	params := noisesuppression.Params{VADThreshold: 0.5, VADRelease: 20 * time.Millisecond}

	// two channels run on the calling goroutine, four in parallel
	for _, channels := range []int{2, 4} {
		inputs := make([][]float32, channels)
		for ch := range inputs {
			inputs[ch] = signal(frameSize*4 + 50)
			if ch%2 == 1 {
				for i := range inputs[ch] {
					inputs[ch][i] = -inputs[ch][i]
				}
			}
		}

		m, err := noisesuppression.NewMultiChannel(&mock.Factory{ProbabilityFunc: positiveIsVoice}, audio.Channel(channels))
		require.NoError(t, err)
		in := interleave(inputs...)
		out := make([]float32, len(in))
		const block = 300
		for pos := 0; pos < len(in); pos += block * channels {
			end := min(pos+block*channels, len(in))
			require.NoError(t, m.ProcessInterleaved(ctx, out[pos:end], in[pos:end], params))
		}
		require.NoError(t, m.Close())

		got := deinterleave(out, channels)
		for ch := range channels {
			mono := noisesuppression.New(&mock.Factory{ProbabilityFunc: positiveIsVoice})
			want := processChunks(ctx, mono, inputs[ch], []int{block}, params.VADThreshold, params.ReleaseFrames())
			assert.Equal(t, want, got[ch], "%d channels, channel %d", channels, ch)
		}
	}
}

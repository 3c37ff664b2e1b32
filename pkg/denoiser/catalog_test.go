package denoiser_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/voicedenoise/pkg/denoiser"
	"github.com/xaionaro-go/voicedenoise/pkg/denoiser/mock"
)

func TestAvailableModels(t *testing.T) {
	models := denoiser.AvailableModels()
	require.Len(t, models, 6)
	assert.Equal(t, denoiser.DefaultModelName, models[0])

	// the result is a copy
	models[0] = "mutated"
	assert.Equal(t, denoiser.DefaultModelName, denoiser.AvailableModels()[0])
}

func TestModelKey(t *testing.T) {
	key, ok := denoiser.ModelKey("default")
	require.True(t, ok)
	assert.Equal(t, "orig", key)

	key, ok = denoiser.ModelKey("somnolent-hogwash-2018-09-01")
	require.True(t, ok)
	assert.Equal(t, "sh", key)

	_, ok = denoiser.ModelKey("no-such-model")
	assert.False(t, ok)

	assert.True(t, denoiser.IsKnownModel("leavened-quisling-2018-08-31"))
	assert.False(t, denoiser.IsKnownModel("orig"))
}

func TestResolveModel(t *testing.T) {
	f := &mock.Factory{Keys: map[string]float32{"bd": 0.5}}

	model := denoiser.ResolveModel(f, "beguiling-drafter-2018-08-30")
	require.NotNil(t, model)
	assert.Equal(t, "bd", model.Key())

	// known name, but the factory has no such key
	assert.Nil(t, denoiser.ResolveModel(f, "conjoined-burgers-2018-08-28"))

	// unknown name falls back to the built-in default
	assert.Nil(t, denoiser.ResolveModel(f, "whatever"))
}

func TestDummy(t *testing.T) {
	f := denoiser.NewDummy()
	state, err := f.NewState(context.Background(), nil)
	require.NoError(t, err)
	defer state.Close()

	in := make([]float32, denoiser.FrameSize)
	for i := range in {
		in[i] = float32(i)
	}
	out := make([]float32, denoiser.FrameSize)
	p := state.ProcessFrame(out, in)
	assert.Equal(t, float32(1), p)
	assert.Equal(t, in, out)
}

func TestEncoding(t *testing.T) {
	enc := denoiser.Encoding()
	assert.Equal(t, denoiser.SampleRate, enc.SampleRate)
	assert.Equal(t, uint64(denoiser.FrameSize*4), enc.BytesForDuration(denoiser.FrameDuration))
}

func TestCanonicalName(t *testing.T) {
	for _, name := range denoiser.AvailableModels() {
		assert.Equal(t, name, denoiser.CanonicalName(name))
	}
	assert.Equal(t, denoiser.DefaultModelName, denoiser.CanonicalName(""))
	assert.Equal(t, denoiser.DefaultModelName, denoiser.CanonicalName("orig"), "keys are not names")
	assert.Equal(t, denoiser.DefaultModelName, denoiser.CanonicalName("client-typo"))
}

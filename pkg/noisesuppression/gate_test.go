package noisesuppression_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xaionaro-go/voicedenoise/pkg/noisesuppression"
)

func TestGateReleaseAfterLastVoice(t *testing.T) {
	var g noisesuppression.Gate
	assert.False(t, g.IsOpen(), "the gate starts closed")

	var passed []bool
	for frame := range 12 {
		p := float32(0)
		if frame < 5 {
			p = 1
		}
		passed = append(passed, g.Advance(p, 0.5, 3))
	}
	assert.Equal(t, []bool{
		true, true, true, true, true, // voice
		true, true, true, // release
		false, false, false, false,
	}, passed)
	assert.Equal(t, uint(0), g.Remaining)
}

func TestGateRearmsOnEveryVoiceFrame(t *testing.T) {
	var g noisesuppression.Gate
	assert.True(t, g.Advance(1, 0.5, 2))
	assert.True(t, g.Advance(0, 0.5, 2))
	assert.Equal(t, uint(1), g.Remaining)
	assert.True(t, g.Advance(0.9, 0.5, 2))
	assert.Equal(t, uint(2), g.Remaining)
	assert.True(t, g.Advance(0, 0.5, 2))
	assert.True(t, g.Advance(0, 0.5, 2))
	assert.False(t, g.Advance(0, 0.5, 2))
}

func TestGateThresholdIsInclusive(t *testing.T) {
	var g noisesuppression.Gate
	assert.True(t, g.Advance(0.5, 0.5, 0))
	assert.False(t, g.Advance(0.4999, 0.5, 0))
}

func TestGateZeroRelease(t *testing.T) {
	var g noisesuppression.Gate
	assert.True(t, g.Advance(1, 0.5, 0), "voice passes even without a release")
	assert.False(t, g.IsOpen())
	assert.False(t, g.Advance(0, 0.5, 0))
}

func TestGateZeroThresholdAlwaysPasses(t *testing.T) {
	var g noisesuppression.Gate
	for range 10 {
		assert.True(t, g.Advance(0, 0, 0))
	}
}

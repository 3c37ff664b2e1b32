package noisesuppression

import (
	"fmt"
	"math"
	"time"

	"github.com/xaionaro-go/voicedenoise/pkg/denoiser"
)

const (
	// DefaultVADThreshold lets every frame through.
	DefaultVADThreshold = float32(0)

	// DefaultVADReleaseFrames keeps the gate open for 200ms after the last voice.
	DefaultVADReleaseFrames = uint(20)

	// normalizedReleaseFrames is the release (in frames) that corresponds to
	// the normalized value 1.0 of a host automation parameter.
	normalizedReleaseFrames = 100
)

// Params are the user-facing gate parameters, as hosts persist them.
type Params struct {
	// VADThreshold is the voice probability in [0, 1] a frame needs to open the gate.
	VADThreshold float32

	// VADRelease is how long the gate stays open after the last voice frame.
	VADRelease time.Duration
}

func DefaultParams() Params {
	return Params{
		VADThreshold: DefaultVADThreshold,
		VADRelease:   ReleaseDuration(DefaultVADReleaseFrames),
	}
}

func (p Params) Validate() error {
	if math.IsNaN(float64(p.VADThreshold)) || p.VADThreshold < 0 || p.VADThreshold > 1 {
		return ErrInvalidParams{Reason: fmt.Sprintf("VAD threshold %v is out of range [0, 1]", p.VADThreshold)}
	}
	if p.VADRelease < 0 {
		return ErrInvalidParams{Reason: fmt.Sprintf("VAD release %v is negative", p.VADRelease)}
	}
	return nil
}

// ReleaseFrames is VADRelease expressed in frames.
func (p Params) ReleaseFrames() uint {
	return ReleaseFramesFromDuration(p.VADRelease)
}

// ReleaseFramesFromDuration converts a duration into the nearest amount of frames.
func ReleaseFramesFromDuration(d time.Duration) uint {
	if d <= 0 {
		return 0
	}
	return uint((d + denoiser.FrameDuration/2) / denoiser.FrameDuration)
}

func ReleaseDuration(frames uint) time.Duration {
	return time.Duration(frames) * denoiser.FrameDuration
}

// ReleaseFramesFromNormalized converts a host automation value in [0, 1]
// into frames; values outside the range are clamped.
func ReleaseFramesFromNormalized(v float32) uint {
	switch {
	case math.IsNaN(float64(v)) || v <= 0:
		return 0
	case v >= 1:
		return normalizedReleaseFrames
	}
	return uint(math.Round(float64(v) * normalizedReleaseFrames))
}

// NormalizedRelease is the inverse of ReleaseFramesFromNormalized.
func NormalizedRelease(frames uint) float32 {
	return float32(frames) / normalizedReleaseFrames
}

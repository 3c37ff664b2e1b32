package denoiser

import (
	"math"
	"time"

	"github.com/xaionaro-go/audio/pkg/audio"
)

const (
	// FrameSize is the amount of samples a State consumes and produces per ProcessFrame call.
	FrameSize = 480

	// SampleRate is the only sample rate the denoisers operate at.
	SampleRate = audio.SampleRate(48000)

	// FrameDuration is the duration of a single frame at SampleRate.
	FrameDuration = 10 * time.Millisecond

	// SampleScale converts normalized [-1, 1] samples into the signed 16-bit
	// amplitude domain the denoisers expect.
	SampleScale = float32(math.MaxInt16)
)

// Encoding is the encoding of the normalized samples the hosts exchange with the engine.
func Encoding() audio.EncodingPCM {
	return audio.EncodingPCM{
		PCMFormat:  audio.PCMFormatFloat32LE,
		SampleRate: SampleRate,
	}
}

// Package denoiser describes the frame-level noise suppressor the streaming
// engine is built around.
//
// A Factory produces States; a State consumes exactly FrameSize samples per
// call in the signed 16-bit amplitude domain, writes the denoised frame and
// returns the probability (in [0, 1]) that the frame contains voice.
// States are stateful across frames and must be fed in stream order. A State
// is not safe for concurrent use.
package denoiser

import (
	"context"
	"io"
)

// Model is a handle of a trained model, as returned by Factory.LookupModel.
type Model interface {
	Key() string
}

type Factory interface {
	// LookupModel returns the model with the given internal key, if the
	// factory knows it.
	LookupModel(key string) (Model, bool)

	// NewState creates a fresh denoiser state. A nil model selects the
	// factory's built-in default model.
	NewState(ctx context.Context, model Model) (State, error)
}

type State interface {
	io.Closer

	// ProcessFrame denoises `in` into `out` (both of length FrameSize) and
	// returns the voice activity probability of the frame.
	ProcessFrame(out, in []float32) float32
}

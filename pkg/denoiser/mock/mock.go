// Package mock provides test doubles for the denoiser package interfaces.
//
// Factory hands out States that multiply the input by a per-model gain and
// report a scripted voice probability, so that tests can tell apart which
// model processed which frame and drive the gate deterministically.
//
// Example:
//
//	f := &mock.Factory{
//	    Keys: map[string]float32{"bd": 0.5},
//	    ProbabilityFunc: func(frameIdx int, _ []float32) float32 {
//	        if frameIdx < 5 {
//	            return 1
//	        }
//	        return 0
//	    },
//	}
package mock

import (
	"context"
	"sync"

	"github.com/xaionaro-go/voicedenoise/pkg/denoiser"
)

// Model is a mock denoiser.Model.
type Model struct {
	KeyValue string
}

func (m *Model) Key() string {
	return m.KeyValue
}

// NewStateCall records a single invocation of Factory.NewState.
type NewStateCall struct {
	// ModelKey is the key of the model passed to NewState; empty for nil.
	ModelKey string
}

// Factory is a mock implementation of denoiser.Factory.
type Factory struct {
	mu sync.Mutex

	// Keys lists the model keys LookupModel knows, mapped to the gain the
	// produced States apply. A nil model uses a gain of 1.
	Keys map[string]float32

	// ProbabilityFunc returns the voice probability of the frame with the
	// given index. The index counts frames across all the States of this
	// Factory. If nil, DefaultProbability is returned.
	ProbabilityFunc func(frameIdx int, in []float32) float32

	// DefaultProbability is used when ProbabilityFunc is nil.
	DefaultProbability float32

	// NewStateErr, if non-nil, is returned as the error from NewState.
	NewStateErr error

	// --- Call records ---

	// NewStateCalls records every call to NewState in order.
	NewStateCalls []NewStateCall

	// States are all the States ever created, in order.
	States []*State

	frameCount int
}

var _ denoiser.Factory = (*Factory)(nil)

// LookupModel returns a Model if key is present in Keys.
func (f *Factory) LookupModel(key string) (denoiser.Model, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.Keys[key]; !ok {
		return nil, false
	}
	return &Model{KeyValue: key}, true
}

// NewState records the call and returns a new State or NewStateErr.
func (f *Factory) NewState(_ context.Context, model denoiser.Model) (denoiser.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var key string
	gain := float32(1)
	if model != nil {
		key = model.Key()
		if g, ok := f.Keys[key]; ok {
			gain = g
		}
	}
	f.NewStateCalls = append(f.NewStateCalls, NewStateCall{ModelKey: key})
	if f.NewStateErr != nil {
		return nil, f.NewStateErr
	}

	s := &State{
		Factory:  f,
		ModelKey: key,
		Gain:     gain,
	}
	f.States = append(f.States, s)
	return s, nil
}

// FrameCount returns the amount of frames processed by all the States.
func (f *Factory) FrameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frameCount
}

// LiveStates returns the States that were not closed, yet.
func (f *Factory) LiveStates() []*State {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*State
	for _, s := range f.States {
		if s.CloseCallCount == 0 {
			result = append(result, s)
		}
	}
	return result
}

func (f *Factory) nextProbability(in []float32) (int, float32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.frameCount
	f.frameCount++
	if f.ProbabilityFunc == nil {
		return idx, f.DefaultProbability
	}
	return idx, f.ProbabilityFunc(idx, in)
}

// ProcessFrameCall records a single invocation of State.ProcessFrame.
type ProcessFrameCall struct {
	// FrameIdx is the Factory-wide index of the frame.
	FrameIdx int

	// Input is a copy of the samples passed to ProcessFrame.
	Input []float32

	// Probability is the value returned.
	Probability float32
}

// State is a mock implementation of denoiser.State.
type State struct {
	Factory  *Factory
	ModelKey string
	Gain     float32

	// ProcessFrameCalls records every call to ProcessFrame in order.
	ProcessFrameCalls []ProcessFrameCall

	// CloseCallCount is the number of times Close was called.
	CloseCallCount int
}

var _ denoiser.State = (*State)(nil)

// ProcessFrame writes in*Gain into out and returns the scripted probability.
func (s *State) ProcessFrame(out, in []float32) float32 {
	if s.CloseCallCount > 0 {
		panic("ProcessFrame on a closed state")
	}
	idx, p := s.Factory.nextProbability(in)
	s.ProcessFrameCalls = append(s.ProcessFrameCalls, ProcessFrameCall{
		FrameIdx:    idx,
		Input:       append([]float32(nil), in...),
		Probability: p,
	})
	for i := range out {
		out[i] = in[i] * s.Gain
	}
	return p
}

// Close records the call.
func (s *State) Close() error {
	s.CloseCallCount++
	return nil
}

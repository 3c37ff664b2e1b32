//go:build !no_libfvad

// Package libfvad implements denoiser.Factory with libfvad: the audio is
// passed through as is, and the voice probability is the binary decision
// of the WebRTC voice activity detector.
package libfvad

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/josharian/fvad"
	"github.com/xaionaro-go/voicedenoise/pkg/denoiser"
)

// DefaultSensitivityMode is the libfvad aggressiveness mode (0..3) used by New.
const DefaultSensitivityMode = 3

type Factory struct {
	SensitivityMode int
}

var _ denoiser.Factory = (*Factory)(nil)

func New(sensitivityMode int) (*Factory, error) {
	if sensitivityMode < 0 || sensitivityMode > 3 {
		return nil, fmt.Errorf("sensitivity mode %d is out of range [0, 3]", sensitivityMode)
	}
	return &Factory{
		SensitivityMode: sensitivityMode,
	}, nil
}

// LookupModel always reports false: libfvad has no trained models to select.
func (*Factory) LookupModel(string) (denoiser.Model, bool) {
	return nil, false
}

func (f *Factory) NewState(
	ctx context.Context,
	model denoiser.Model,
) (denoiser.State, error) {
	if model != nil {
		logger.Debugf(ctx, "libfvad ignores model '%s'", model.Key())
	}
	detector := fvad.NewDetector()
	if err := detector.SetSampleRate(int(denoiser.SampleRate)); err != nil {
		detector.Close()
		return nil, fmt.Errorf("unable to set the sample rate: %w", err)
	}
	if err := detector.SetMode(f.SensitivityMode); err != nil {
		detector.Close()
		return nil, fmt.Errorf("unable to set the sensitivity mode: %w", err)
	}
	return &State{
		Detector: detector,
		samples:  make([]int16, denoiser.FrameSize),
	}, nil
}

type State struct {
	*fvad.Detector
	samples []int16
}

var _ denoiser.State = (*State)(nil)

func (s *State) ProcessFrame(out, in []float32) float32 {
	copy(out, in)
	toInt16(s.samples, in)
	isVoice, err := s.Detector.Process(s.samples)
	if err != nil || !isVoice {
		return 0
	}
	return 1
}

func (s *State) Close() error {
	if s.Detector == nil {
		return nil
	}
	s.Detector.Close()
	s.Detector = nil
	return nil
}

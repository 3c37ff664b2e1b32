//go:build rnnoise && !windows

// Package rnnoise implements denoiser.Factory on top of the RNNoise library
// (with the rnnoise-nu additions that carry the alternative models).
package rnnoise

// #cgo pkg-config: rnnoise
// #include <stdlib.h>
// #include <rnnoise.h>
// #include <rnnoise-nu.h>
import "C"

import (
	"context"
	"fmt"
	"unsafe"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/voicedenoise/pkg/denoiser"
)

type Model struct {
	key   string
	model *C.RNNModel
}

var _ denoiser.Model = (*Model)(nil)

func (m *Model) Key() string {
	return m.key
}

type Factory struct{}

var _ denoiser.Factory = (*Factory)(nil)

func New() *Factory {
	return &Factory{}
}

func (*Factory) LookupModel(key string) (denoiser.Model, bool) {
	cKey := C.CString(key)
	defer C.free(unsafe.Pointer(cKey))
	model := C.rnnoise_get_model(cKey)
	if model == nil {
		return nil, false
	}
	return &Model{key: key, model: model}, true
}

func (*Factory) NewState(
	ctx context.Context,
	model denoiser.Model,
) (denoiser.State, error) {
	var rnnModel *C.RNNModel
	if model != nil {
		m, ok := model.(*Model)
		if !ok {
			return nil, fmt.Errorf("model of type %T is not an RNNoise model", model)
		}
		rnnModel = m.model
		logger.Debugf(ctx, "creating an RNNoise state with model '%s'", m.key)
	} else {
		logger.Debugf(ctx, "creating an RNNoise state with the built-in model")
	}

	st := C.rnnoise_create(rnnModel)
	if st == nil {
		return nil, fmt.Errorf("rnnoise_create returned NULL")
	}
	return &State{state: st}, nil
}

type State struct {
	state *C.DenoiseState
}

var _ denoiser.State = (*State)(nil)

func (s *State) ProcessFrame(out, in []float32) float32 {
	return float32(C.rnnoise_process_frame(
		s.state,
		(*C.float)(unsafe.Pointer(&out[0])),
		(*C.float)(unsafe.Pointer(&in[0])),
	))
}

func (s *State) Close() error {
	if s.state == nil {
		return nil
	}
	C.rnnoise_destroy(s.state)
	s.state = nil
	return nil
}

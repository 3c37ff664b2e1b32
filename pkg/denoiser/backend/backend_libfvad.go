//go:build (!rnnoise || windows) && !no_libfvad

package backend

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/voicedenoise/pkg/denoiser"
	"github.com/xaionaro-go/voicedenoise/pkg/denoiser/implementations/libfvad"
)

const Name = "libfvad"

func newFactory(context.Context) (denoiser.Factory, error) {
	f, err := libfvad.New(libfvad.DefaultSensitivityMode)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize libfvad: %w", err)
	}
	return f, nil
}

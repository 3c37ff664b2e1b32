//go:build rnnoise && !windows

package backend

import (
	"context"

	"github.com/xaionaro-go/voicedenoise/pkg/denoiser"
	"github.com/xaionaro-go/voicedenoise/pkg/denoiser/implementations/rnnoise"
)

const Name = "rnnoise"

func newFactory(context.Context) (denoiser.Factory, error) {
	return rnnoise.New(), nil
}

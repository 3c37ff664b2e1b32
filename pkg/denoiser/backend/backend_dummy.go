//go:build (!rnnoise || windows) && no_libfvad

package backend

import (
	"context"

	"github.com/xaionaro-go/voicedenoise/pkg/denoiser"
)

const Name = "dummy"

func newFactory(context.Context) (denoiser.Factory, error) {
	return denoiser.NewDummy(), nil
}

// Package backend selects the denoiser implementation compiled into the
// binary. Build with `-tags rnnoise` to link RNNoise; without it libfvad is
// used (voice detection only); `-tags no_libfvad` leaves the passthrough
// dummy.
package backend

import (
	"context"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/voicedenoise/pkg/denoiser"
)

func New(ctx context.Context) (denoiser.Factory, error) {
	f, err := newFactory(ctx)
	if err != nil {
		return nil, err
	}
	logger.Debugf(ctx, "denoiser backend: %s", Name)
	return f, nil
}

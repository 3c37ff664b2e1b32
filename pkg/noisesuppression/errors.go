package noisesuppression

import (
	"fmt"

	"github.com/xaionaro-go/audio/pkg/audio"
)

type ErrInvalidChannels struct {
	Channels audio.Channel
}

func (e ErrInvalidChannels) Error() string {
	return fmt.Sprintf("invalid amount of channels: %d", e.Channels)
}

type ErrMisalignedBlock struct {
	Samples  int
	Channels int
}

func (e ErrMisalignedBlock) Error() string {
	return fmt.Sprintf("a block of %d samples cannot be split into %d channels", e.Samples, e.Channels)
}

type ErrOutputTooShort struct {
	Have int
	Need int
}

func (e ErrOutputTooShort) Error() string {
	return fmt.Sprintf("the output buffer is too short: %d < %d", e.Have, e.Need)
}

type ErrInvalidParams struct {
	Reason string
}

func (e ErrInvalidParams) Error() string {
	return fmt.Sprintf("invalid parameters: %s", e.Reason)
}

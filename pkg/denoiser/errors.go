package denoiser

import (
	"fmt"
)

type ErrInitState struct {
	Model string
	Err   error
}

func (e ErrInitState) Error() string {
	return fmt.Sprintf("unable to initialize a denoiser state for model '%s': %v", e.Model, e.Err)
}

func (e ErrInitState) Unwrap() error {
	return e.Err
}

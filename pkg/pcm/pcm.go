// Package pcm converts between raw float32 little-endian PCM bytes and
// sample slices without copying.
//
// The views share memory with their source and assume a little-endian host.
package pcm

import (
	"fmt"
	"unsafe"

	"github.com/xaionaro-go/audio/pkg/audio"
)

const BytesPerSample = 4

type ErrTruncatedSample struct {
	Bytes int
}

func (e ErrTruncatedSample) Error() string {
	return fmt.Sprintf("%d bytes is not a whole amount of %d-byte samples", e.Bytes, BytesPerSample)
}

// Float32s returns the samples stored in b. Trailing bytes that do not form
// a whole sample are ignored.
func Float32s(b []byte) []float32 {
	if len(b) < BytesPerSample {
		return nil
	}
	ptr := unsafe.SliceData(b)
	return unsafe.Slice((*float32)(unsafe.Pointer(ptr)), len(b)/BytesPerSample)
}

// Bytes returns the raw representation of the samples.
func Bytes(s []float32) []byte {
	if len(s) == 0 {
		return nil
	}
	ptr := unsafe.SliceData(s)
	return unsafe.Slice((*byte)(unsafe.Pointer(ptr)), len(s)*BytesPerSample)
}

// Samples is like Float32s, but rejects inputs with a partial sample.
func Samples(b []byte) ([]float32, error) {
	if len(b)%BytesPerSample != 0 {
		return nil, ErrTruncatedSample{Bytes: len(b)}
	}
	return Float32s(b), nil
}

// BlockBytes returns the size in bytes of a block of interleaved samples
// of the given duration in frames per channel.
func BlockBytes(samplesPerChannel int, channels audio.Channel) int {
	return samplesPerChannel * int(channels) * BytesPerSample
}

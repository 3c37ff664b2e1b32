package noisesuppression

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSampleQueueFIFO(t *testing.T) {
	var q sampleQueue
	q.PushScaled([]float32{1, 2, 3}, 2)
	q.PushScaled([]float32{4}, 1)
	require.Equal(t, 4, q.Len())
	require.Equal(t, []float32{2, 4}, q.Front(2))

	dst := make([]float32, 3)
	n := q.PopInto(dst)
	require.Equal(t, 3, n)
	require.Equal(t, []float32{2, 4, 6}, dst)
	require.Equal(t, 1, q.Len())

	n = q.PopInto(dst)
	require.Equal(t, 1, n)
	require.Equal(t, float32(4), dst[0])
	require.Equal(t, 0, q.Len())
	require.Equal(t, 0, q.head)
}

func TestSampleQueueCompactsInsteadOfGrowing(t *testing.T) {
	var q sampleQueue
	w := q.Grow(8)
	for i := range w {
		w[i] = float32(i)
	}
	capBefore := cap(q.buf)
	q.Discard(6)

	// the two live samples are moved to the front to make room
	w = q.Grow(capBefore - 2)
	for i := range w {
		w[i] = 100
	}
	require.Equal(t, capBefore, cap(q.buf))
	require.Equal(t, []float32{6, 7, 100}, q.Front(3))
	require.Equal(t, capBefore, q.Len())
}

func TestSampleQueueReset(t *testing.T) {
	var q sampleQueue
	q.PushScaled([]float32{1, 2, 3}, 1)
	q.Discard(1)
	q.Reset()
	require.Equal(t, 0, q.Len())
	require.Equal(t, 0, q.PopInto(make([]float32, 4)))
}

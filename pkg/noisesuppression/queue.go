package noisesuppression

import (
	"slices"
)

// sampleQueue is a FIFO of samples. Consumed samples are skipped by moving
// the head; the live tail is moved to the front of the backing array only
// when an append would otherwise need to grow it.
type sampleQueue struct {
	buf  []float32
	head int
}

func (q *sampleQueue) Len() int {
	return len(q.buf) - q.head
}

// Grow appends n uninitialized samples and returns them for writing. The
// returned slice is valid until the next mutation of the queue.
func (q *sampleQueue) Grow(n int) []float32 {
	q.makeRoom(n)
	start := len(q.buf)
	q.buf = q.buf[:start+n]
	return q.buf[start:]
}

// PushScaled appends samples multiplied by scale.
func (q *sampleQueue) PushScaled(samples []float32, scale float32) {
	dst := q.Grow(len(samples))
	for i, v := range samples {
		dst[i] = v * scale
	}
}

// Front returns the first n samples without consuming them.
func (q *sampleQueue) Front(n int) []float32 {
	return q.buf[q.head : q.head+n]
}

// Discard consumes the first n samples.
func (q *sampleQueue) Discard(n int) {
	q.head += n
	if q.head == len(q.buf) {
		q.buf = q.buf[:0]
		q.head = 0
	}
}

// PopInto consumes up to len(dst) samples into dst and returns the amount copied.
func (q *sampleQueue) PopInto(dst []float32) int {
	n := copy(dst, q.buf[q.head:])
	q.Discard(n)
	return n
}

func (q *sampleQueue) Reset() {
	q.buf = q.buf[:0]
	q.head = 0
}

func (q *sampleQueue) makeRoom(n int) {
	if len(q.buf)+n <= cap(q.buf) {
		return
	}
	if q.head > 0 {
		live := copy(q.buf, q.buf[q.head:])
		q.buf = q.buf[:live]
		q.head = 0
	}
	q.buf = slices.Grow(q.buf, n)
}

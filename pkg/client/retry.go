package client

import (
	"math/rand/v2"
	"time"
)

const (
	DefaultRetryBase  = time.Second
	DefaultRetryMax   = 3
	defaultJitterSpan = time.Second
)

// jitterBackOff waits base*2^n plus a uniform jitter in [0, jitter).
type jitterBackOff struct {
	base   time.Duration
	jitter time.Duration
	n      int
}

func (b *jitterBackOff) NextBackOff() time.Duration {
	d := b.base << b.n
	b.n++

	if b.jitter > 0 {
		d += time.Duration(rand.Int64N(int64(b.jitter)))
	}

	return d
}

func (b *jitterBackOff) Reset() { b.n = 0 }

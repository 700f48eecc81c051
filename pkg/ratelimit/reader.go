package ratelimit

import (
	"context"
	"io"
	"sync"
	"time"
)

// Limiter is a token bucket shared by every reader of one sync run, so the
// configured rate caps the aggregate throughput across concurrent
// destination copies rather than each copy individually.
type Limiter struct {
	bytesPerSecond int64
	bucketSize     int64

	mu         sync.Mutex
	tokens     int64
	lastUpdate time.Time
}

// NewLimiter creates a limiter for the given bytes-per-second rate.
// A non-positive rate returns nil, which every consumer treats as unlimited.
func NewLimiter(bytesPerSecond int64) *Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}

	// Allow bursts of up to one second of traffic, with a floor so small
	// rates still transfer smoothly.
	bucketSize := bytesPerSecond
	if bucketSize < 64*1024 {
		bucketSize = 64 * 1024
	}

	return &Limiter{
		bytesPerSecond: bytesPerSecond,
		bucketSize:     bucketSize,
		tokens:         bucketSize,
		lastUpdate:     time.Now(),
	}
}

// take blocks until n tokens are available or the context is cancelled,
// then consumes them.
func (l *Limiter) take(ctx context.Context, n int64) error {
	for {
		l.mu.Lock()
		l.refill()
		if l.tokens >= n {
			l.tokens -= n
			l.mu.Unlock()
			return nil
		}
		deficit := n - l.tokens
		l.mu.Unlock()

		wait := time.Duration(float64(deficit) / float64(l.bytesPerSecond) * float64(time.Second))
		if wait < time.Millisecond {
			wait = time.Millisecond
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// refill adds tokens for the elapsed time. Caller must hold the lock.
func (l *Limiter) refill() {
	now := time.Now()
	elapsed := now.Sub(l.lastUpdate)

	added := int64(float64(elapsed) / float64(time.Second) * float64(l.bytesPerSecond))
	if added > 0 {
		l.tokens += added
		if l.tokens > l.bucketSize {
			l.tokens = l.bucketSize
		}
		l.lastUpdate = now
	}
}

// Reader wraps an io.Reader with rate limiting
type Reader struct {
	reader  io.Reader
	limiter *Limiter
	ctx     context.Context
}

// NewReader wraps reader with the limiter. A nil limiter returns the
// reader unchanged.
func NewReader(ctx context.Context, reader io.Reader, limiter *Limiter) io.Reader {
	if limiter == nil {
		return reader
	}
	return &Reader{reader: reader, limiter: limiter, ctx: ctx}
}

// Read implements io.Reader, acquiring tokens before each underlying read
func (r *Reader) Read(p []byte) (int, error) {
	toRead := int64(len(p))
	if toRead > r.limiter.bucketSize {
		toRead = r.limiter.bucketSize
	}

	if err := r.limiter.take(r.ctx, toRead); err != nil {
		return 0, err
	}

	n, err := r.reader.Read(p[:toRead])

	// Return tokens we reserved but did not use on a short read.
	if int64(n) < toRead {
		r.limiter.mu.Lock()
		r.limiter.tokens += toRead - int64(n)
		if r.limiter.tokens > r.limiter.bucketSize {
			r.limiter.tokens = r.limiter.bucketSize
		}
		r.limiter.mu.Unlock()
	}

	return n, err
}

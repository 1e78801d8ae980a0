package http

import "golang.org/x/time/rate"

const codeFloodLimited = "rate_limited"

// frameLimiter bounds how many frames a single connection may push per second.
// It guards the hub queue from floods; the per-action abuse gate lives in core.
type frameLimiter struct {
	limiter *rate.Limiter
}

func newFrameLimiter(perSecond float64, burst int) *frameLimiter {
	if perSecond <= 0 {
		return &frameLimiter{}
	}
	if burst <= 0 {
		burst = 1
	}
	return &frameLimiter{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (f *frameLimiter) allow() bool {
	if f == nil || f.limiter == nil {
		return true
	}
	return f.limiter.Allow()
}

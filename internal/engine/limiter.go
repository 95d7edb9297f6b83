package engine

import (
	"context"

	"golang.org/x/time/rate"
)

// apiLimiter throttles YouTube Data API calls so a burst of tool invocations
// cannot burn through the daily quota. nil = unlimited.
var apiLimiter *rate.Limiter

func initLimiter(perSecond float64, burst int) {
	if perSecond <= 0 {
		apiLimiter = nil
		return
	}
	if burst <= 0 {
		burst = 1
	}
	apiLimiter = rate.NewLimiter(rate.Limit(perSecond), burst)
}

// WaitQuota blocks until a Data API request is allowed to proceed, or the
// context is cancelled.
func WaitQuota(ctx context.Context) error {
	if apiLimiter == nil {
		return nil
	}
	return apiLimiter.Wait(ctx)
}

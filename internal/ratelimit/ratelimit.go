package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrQuotaExceeded is returned once the daily request budget is spent.
var ErrQuotaExceeded = errors.New("ai request quota exceeded")

// AIRateLimiter guards calls to the generative backend: a daily cap plus
// a per-minute pace.
type AIRateLimiter struct {
	mu        sync.Mutex
	count     int
	maxDaily  int
	resetTime time.Time
	pace      *rate.Limiter
	now       func() time.Time
}

// NewAIRateLimiter creates a limiter. maxDaily <= 0 disables the daily cap,
// perMinute <= 0 disables pacing.
func NewAIRateLimiter(maxDaily, perMinute int) *AIRateLimiter {
	rl := &AIRateLimiter{
		maxDaily: maxDaily,
		now:      time.Now,
	}
	rl.resetTime = rl.now().Add(24 * time.Hour)
	if perMinute > 0 {
		rl.pace = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
	}
	return rl
}

// Acquire books one request or reports why it cannot be made.
func (rl *AIRateLimiter) Acquire(ctx context.Context) error {
	rl.mu.Lock()
	rl.checkReset()
	if rl.maxDaily > 0 && rl.count >= rl.maxDaily {
		rl.mu.Unlock()
		return fmt.Errorf("%w (%d/%d)", ErrQuotaExceeded, rl.count, rl.maxDaily)
	}
	rl.count++
	rl.mu.Unlock()

	if rl.pace == nil {
		return nil
	}
	if err := rl.pace.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for ai rate limiter: %w", err)
	}
	return nil
}

// GetStats returns current rate limiter statistics
func (rl *AIRateLimiter) GetStats() map[string]interface{} {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return map[string]interface{}{
		"ai_used":    rl.count,
		"ai_limit":   rl.maxDaily,
		"reset_time": rl.resetTime,
	}
}

// checkReset resets counters if reset time has passed
func (rl *AIRateLimiter) checkReset() {
	if rl.now().After(rl.resetTime) {
		rl.count = 0
		rl.resetTime = rl.now().Add(24 * time.Hour)
	}
}

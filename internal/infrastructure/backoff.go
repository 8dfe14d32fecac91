package infrastructure

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
)

type retryPolicy struct {
	maxRetry  int
	factor    float64
	minJitter time.Duration
	maxJitter time.Duration
	rng       *rand.Rand
}

// newRetryPolicy fills unset values from defaults.
func newRetryPolicy(maxRetry int, factor float64, minJitter, maxJitter time.Duration, defaults retryPolicy) retryPolicy {
	p := retryPolicy{
		maxRetry:  maxRetry,
		factor:    factor,
		minJitter: minJitter,
		maxJitter: maxJitter,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if p.maxRetry < 0 {
		p.maxRetry = 0
	}
	if p.factor < 1 {
		p.factor = defaults.factor
	}
	if p.minJitter <= 0 {
		p.minJitter = defaults.minJitter
	}
	if p.maxJitter <= 0 {
		p.maxJitter = defaults.maxJitter
	}
	if p.maxJitter < p.minJitter {
		p.maxJitter = p.minJitter
	}

	return p
}

func (p retryPolicy) delay(attempt int) time.Duration {
	backoff := float64(p.minJitter) * math.Pow(p.factor, float64(attempt))
	if backoff > float64(p.maxJitter) {
		backoff = float64(p.maxJitter)
	}

	base := time.Duration(backoff)
	if p.maxJitter <= p.minJitter {
		return base
	}

	jitterWindow := p.maxJitter - p.minJitter
	jitter := time.Duration(p.rng.Int63n(int64(jitterWindow) + 1))
	result := base + jitter
	if result > p.maxJitter {
		return p.maxJitter
	}

	return result
}

// retry runs fn up to maxRetry+1 times, sleeping delay(attempt) in between.
func (p retryPolicy) retry(ctx context.Context, name string, fields logrus.Fields, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= p.maxRetry; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == p.maxRetry {
			break
		}

		waitDuration := p.delay(attempt)
		logrus.WithFields(fields).WithFields(logrus.Fields{
			"attempt":   attempt + 1,
			"max_retry": p.maxRetry,
			"retry_in":  waitDuration.String(),
		}).Warnf("%s connection failed: %v", name, lastErr)

		select {
		case <-time.After(waitDuration):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("connect %s after %d attempts: %w", name, p.maxRetry+1, lastErr)
}

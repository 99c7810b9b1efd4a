// Copyright 2026 The OASIS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package llm

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RateLimiterConfig configures the shared LLM rate limiter.
type RateLimiterConfig struct {
	// Enabled turns rate limiting on.
	Enabled bool
	// RequestsPerSecond caps request rate across all agents. Default: 5.
	RequestsPerSecond float64
	// BurstCapacity allows brief bursts above the steady rate. Default: 10.
	BurstCapacity int
	// Logger for throttling events.
	Logger *zap.Logger
}

// RateLimiter is a token bucket shared by every client of one provider.
// Safe for concurrent use.
type RateLimiter struct {
	mu       sync.Mutex
	tokens   float64
	capacity float64
	rate     float64
	last     time.Time
	logger   *zap.Logger
}

// NewRateLimiter creates a token-bucket limiter from config.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.BurstCapacity <= 0 {
		cfg.BurstCapacity = 10
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &RateLimiter{
		tokens:   float64(cfg.BurstCapacity),
		capacity: float64(cfg.BurstCapacity),
		rate:     cfg.RequestsPerSecond,
		last:     time.Now(),
		logger:   cfg.Logger,
	}
}

// Wait blocks until a token is available or ctx is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		now := time.Now()
		r.tokens += now.Sub(r.last).Seconds() * r.rate
		if r.tokens > r.capacity {
			r.tokens = r.capacity
		}
		r.last = now

		if r.tokens >= 1 {
			r.tokens--
			r.mu.Unlock()
			return nil
		}
		wait := time.Duration((1 - r.tokens) / r.rate * float64(time.Second))
		r.mu.Unlock()

		r.logger.Debug("rate limiter throttling", zap.Duration("wait", wait))
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

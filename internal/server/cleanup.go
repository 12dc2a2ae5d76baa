package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/savesmart/internal/middleware"
	"github.com/dukerupert/savesmart/internal/store"
)

// DefaultCleanupInterval is how often expired sessions and rate limit
// windows are swept.
const DefaultCleanupInterval = time.Hour

// Cleaner periodically removes expired sessions and stale rate limit entries.
type Cleaner struct {
	mu       sync.RWMutex
	sessions *store.SessionStore
	limiter  *middleware.RateLimiter
	interval time.Duration
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewCleaner(sessions *store.SessionStore, limiter *middleware.RateLimiter, interval time.Duration, logger *slog.Logger) *Cleaner {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	return &Cleaner{
		sessions: sessions,
		limiter:  limiter,
		interval: interval,
		logger:   logger,
	}
}

// Start begins the cleanup loop.
func (c *Cleaner) Start(ctx context.Context) {
	c.mu.Lock()
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	c.mu.Unlock()

	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.RunOnce(ctx)
			}
		}
	}()
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (c *Cleaner) Stop() {
	c.mu.RLock()
	cancel := c.cancel
	done := c.done
	c.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// RunOnce performs a single sweep.
func (c *Cleaner) RunOnce(ctx context.Context) {
	sessions, err := c.sessions.DeleteExpired(ctx)
	if err != nil {
		c.logger.Error("session cleanup failed", "error", err)
	}
	limits := c.limiter.Cleanup()
	if sessions > 0 || limits > 0 {
		c.logger.Info("cleanup complete", "sessions", sessions, "rate_limits", limits)
	}
}

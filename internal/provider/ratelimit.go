package provider

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/quantscore/internal/contracts"
	"github.com/wonny/quantscore/pkg/config"
	"github.com/wonny/quantscore/pkg/logger"
	"github.com/wonny/quantscore/pkg/redis"
)

// RateLimitedClient wraps a MetricProvider and enforces the provider's
// request budget: at most R requests per window W. Callers that exceed
// the budget block until a slot frees up; requests are never dropped.
//
// The in-process token bucket is always active. When a shared Redis
// limiter is attached, both gates must pass, so several pipeline
// processes can split one upstream quota.
type RateLimitedClient struct {
	inner   contracts.MetricProvider
	limiter *rate.Limiter
	timeout time.Duration
	logger  *logger.Logger

	shared    *redis.RateLimiter
	sharedCfg redis.RateLimitConfig
}

// NewRateLimitedClient builds the budget-enforcing wrapper from config
func NewRateLimitedClient(inner contracts.MetricProvider, cfg config.ProviderConfig, log *logger.Logger) *RateLimitedClient {
	interval := cfg.RateWindow / time.Duration(cfg.RateLimit)
	return &RateLimitedClient{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Every(interval), cfg.RateLimit),
		timeout: cfg.FetchTimeout,
		logger:  log.WithField("module", "provider"),
	}
}

// WithSharedLimiter attaches a Redis sliding-window limiter for
// multi-process deployments sharing one provider quota
func (c *RateLimitedClient) WithSharedLimiter(limiter *redis.RateLimiter, cfg redis.RateLimitConfig) *RateLimitedClient {
	c.shared = limiter
	c.sharedCfg = cfg
	return c
}

// Fetch blocks for a budget slot, then delegates with the per-call
// timeout applied. A timeout is surfaced as a transient failure.
func (c *RateLimitedClient) Fetch(ctx context.Context, ticker string) (*contracts.RawMetricBag, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	if c.shared != nil {
		if err := c.shared.Wait(ctx, c.sharedCfg); err != nil {
			return nil, fmt.Errorf("shared rate limit wait: %w", err)
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	bag, err := c.inner.Fetch(fetchCtx, ticker)
	if err != nil {
		if fetchCtx.Err() == context.DeadlineExceeded {
			return nil, NewTransient(ticker, context.DeadlineExceeded)
		}
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker":   ticker,
		"metrics":  bag.Len(),
		"duration": time.Since(start),
	}).Debug("Fetched metric bag")

	return bag, nil
}

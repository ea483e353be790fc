package middleware

import (
	"sync"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

var limiterInstance = NewIPRateLimiter(rate.Limit(config.RATE_LIMIT_PER_SECOND), config.BURST_RATE_LIMIT_PER_SECOND)

// IPRateLimiter keeps one token bucket per client IP. Buckets of IPs quiet for
// config.RateLimiterIdleExpiry are dropped, so the map does not grow with
// every address that ever connected.
type IPRateLimiter struct {
	limiters  *cache.Cache
	mu        sync.Mutex
	rateLimit rate.Limit
	burstRate int
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		limiters:  cache.New(config.RateLimiterIdleExpiry, config.RateLimiterIdleExpiry),
		rateLimit: r,
		burstRate: b,
	}
}

// InitRateLimiter replaces the default per-IP limits. A non-positive rate disables limiting.
func InitRateLimiter(cfg config.RateLimitConfig) {
	if cfg.PerSecond <= 0 {
		limiterInstance = NewIPRateLimiter(rate.Inf, 0)
		return
	}
	limiterInstance = NewIPRateLimiter(rate.Limit(cfg.PerSecond), cfg.Burst)
}

// GetLimiter returns ip's bucket and restarts its expiry.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()
	limiter, found := i.limiters.Get(ip)
	if !found {
		limiter = rate.NewLimiter(i.rateLimit, i.burstRate)
	}
	i.limiters.SetDefault(ip, limiter)
	return limiter.(*rate.Limiter)
}

func (i *IPRateLimiter) Tracked() int {
	return i.limiters.ItemCount()
}

//TODO: move the per-IP limiters to redis once more than one API instance runs

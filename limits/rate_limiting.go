package limits

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/didip/tollbooth"
	"github.com/didip/tollbooth/limiter"
	"github.com/turt2live/pack-repo/api"
	"github.com/turt2live/pack-repo/common/config"
)

// NewRequestLimiter builds a per-IP token bucket limiter from the current
// config.
func NewRequestLimiter(conf config.RateLimitConfig) *limiter.Limiter {
	l := tollbooth.NewLimiter(0, nil)
	l.SetIPLookups([]string{"X-Forwarded-For", "X-Real-IP", "RemoteAddr"})
	l.SetTokenBucketExpirationTTL(time.Hour)
	l.SetBurst(conf.BurstCount)
	l.SetMax(conf.RequestsPerSecond)

	b, _ := json.Marshal(api.RateLimitReached())
	l.SetMessage(string(b))
	l.SetMessageContentType("application/json")
	return l
}

// Wrap applies the configured rate limit to next, or returns it untouched
// when rate limiting is disabled.
func Wrap(conf config.RateLimitConfig, next http.Handler) http.Handler {
	if !conf.Enabled {
		return next
	}
	return tollbooth.LimitHandler(NewRequestLimiter(conf), next)
}

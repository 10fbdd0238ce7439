// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"

	"github.com/carterperez-dev/templates/user-api/internal/core"
)

// RateLimit spends one unit of l per request, bucketed by keyFunc.
func RateLimit(
	l *Limiter,
	keyFunc func(*http.Request) string,
) func(http.Handler) http.Handler {
	if keyFunc == nil {
		keyFunc = KeyByIP
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := l.Allow(r.Context(), keyFunc(r))
			WriteRateLimitHeaders(w, l.Limit(), d)

			if !d.Allowed {
				RejectRateLimited(w, d)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP prefers the hop appended by the nearest proxy over the socket
// address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.LastIndexByte(xff, ','); i >= 0 {
			xff = xff[i+1:]
		}
		if ip := strings.TrimSpace(xff); ip != "" {
			return ip
		}
	}

	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func KeyByIP(r *http.Request) string {
	return "ip:" + ClientIP(r)
}

func WriteRateLimitHeaders(
	w http.ResponseWriter,
	limit redis_rate.Limit,
	d Decision,
) {
	h := w.Header()
	h.Set("RateLimit-Policy", fmt.Sprintf("%d;w=%d",
		limit.Rate, int(limit.Period.Seconds())))
	h.Set("RateLimit", fmt.Sprintf("limit=%d, remaining=%d, reset=%d",
		limit.Rate, d.Remaining, ceilSeconds(d.ResetAfter)))
}

// RejectRateLimited answers 429 with a Retry-After of at least one second.
func RejectRateLimited(w http.ResponseWriter, d Decision) {
	retryAfter := max(ceilSeconds(d.RetryAfter), 1)

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	core.JSONError(w, core.TooManyRequestsError(retryAfter))
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/arcanium-studios/arcanium-backend/api/responses"
	pkgerrors "github.com/arcanium-studios/arcanium-backend/pkg/errors"
	"github.com/arcanium-studios/arcanium-backend/pkg/logger"
)

type fixedWindowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// CartRateLimitPolicy bounds how many cart mutations a session may issue per window.
type CartRateLimitPolicy struct {
	limit  int
	window time.Duration
}

// NewCartRateLimitPolicy builds a policy with the supplied limit and window.
func NewCartRateLimitPolicy(limit int, window time.Duration) CartRateLimitPolicy {
	return CartRateLimitPolicy{limit: limit, window: window}
}

func (p CartRateLimitPolicy) enabled() bool {
	return p.window > 0 && p.limit > 0
}

// CartRateLimit throttles mutating cart requests per session. Reads are not counted.
func CartRateLimit(policy CartRateLimitPolicy, store fixedWindowLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isMutation(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			scope := rateLimitScope(r)
			allowed, count, err := store.FixedWindowAllow(ctx, scope, int64(policy.limit), policy.window)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if !allowed {
				if logg != nil {
					logCtx := logg.WithFields(ctx, map[string]any{
						"scope":          scope,
						"attempts":       count,
						"limit":          policy.limit,
						"window_seconds": int(policy.window.Seconds()),
					})
					logg.Warn(logCtx, "cart.rate_limit.blocked")
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(policy.window.Seconds())))
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many cart updates"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func rateLimitScope(r *http.Request) string {
	if sessionID := SessionIDFromContext(r.Context()); sessionID != "" {
		return "cart:session:" + sessionID
	}
	return "cart:ip:" + clientIP(r)
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

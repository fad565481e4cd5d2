package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arcanium-studios/arcanium-backend/pkg/logger"
)

const (
	// SessionHeader carries the cart session for clients that do not keep cookies.
	SessionHeader = "X-Cart-Session"

	defaultSessionCookie = "arcanium_cart"
	maxSessionIDLength   = 128
)

// SessionOptions controls how the cart session cookie is issued.
type SessionOptions struct {
	CookieName string
	Secure     bool
	TTL        time.Duration
}

// Session resolves the browsing session from the header or cookie, issuing a
// fresh id when neither carries a usable value. The id is echoed on every
// response so clients can keep it.
func Session(opts SessionOptions, logg *logger.Logger) func(http.Handler) http.Handler {
	name := strings.TrimSpace(opts.CookieName)
	if name == "" {
		name = defaultSessionCookie
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID, fresh := resolveSession(r, name)

			cookie := &http.Cookie{
				Name:     name,
				Value:    sessionID,
				Path:     "/",
				HttpOnly: true,
				Secure:   opts.Secure,
				SameSite: http.SameSiteLaxMode,
			}
			if opts.TTL > 0 {
				cookie.MaxAge = int(opts.TTL.Seconds())
			}
			http.SetCookie(w, cookie)
			w.Header().Set(SessionHeader, sessionID)

			ctx := WithSessionID(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
				if fresh {
					logg.Debug(ctx, "cart.session_issued")
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveSession(r *http.Request, cookieName string) (string, bool) {
	if id := strings.TrimSpace(r.Header.Get(SessionHeader)); validSessionID(id) {
		return id, false
	}
	if c, err := r.Cookie(cookieName); err == nil {
		if id := strings.TrimSpace(c.Value); validSessionID(id) {
			return id, false
		}
	}
	return uuid.NewString(), true
}

func validSessionID(id string) bool {
	if id == "" || len(id) > maxSessionIDLength {
		return false
	}
	for _, ch := range id {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9', ch == '-', ch == '_':
		default:
			return false
		}
	}
	return true
}

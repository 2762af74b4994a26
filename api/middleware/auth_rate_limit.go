package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const maxAuthBodyBytes = 64 << 10

// RateLimiter is the fixed-window counter backing the auth limits.
type RateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// AuthRateLimitPolicy holds the window and the per-IP and per-email limits
// for one auth endpoint. A zero limit disables that counter.
type AuthRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	emailLimit int
}

func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{name: name, window: window, ipLimit: ipLimit, emailLimit: emailLimit}
}

func LoginRateLimitPolicy(cfg config.AuthRateLimitConfig) AuthRateLimitPolicy {
	return NewAuthRateLimitPolicy("login", cfg.LoginWindow, cfg.LoginIPLimit, cfg.LoginEmailLimit)
}

func RegisterRateLimitPolicy(cfg config.AuthRateLimitConfig) AuthRateLimitPolicy {
	return NewAuthRateLimitPolicy("register", cfg.RegisterWindow, cfg.RegisterIPLimit, cfg.RegisterEmailLimit)
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0)
}

// counter is one limiter bucket a request is charged against.
type counter struct {
	kind     string // "ip" or "email"
	subject  string // client ip or email hash, logged on block
	limit    int
	scopeKey string
}

func (p AuthRateLimitPolicy) counterFor(kind, subject string, limit int) counter {
	return counter{kind: kind, subject: subject, limit: limit, scopeKey: kind + ":" + p.name + ":" + subject}
}

// AuthRateLimit enforces per-IP and per-email counters for auth endpoints.
// Emails are hashed before they reach Redis or the logs.
func AuthRateLimit(policy AuthRateLimitPolicy, limiter RateLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			counters, err := policy.countersFor(r)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
				return
			}

			for _, c := range counters {
				allowed, attempts, err := limiter.FixedWindowAllow(ctx, c.scopeKey, int64(c.limit), policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if !allowed {
					policy.reject(ctx, logg, w, c, attempts)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// countersFor reads the body only when an email limit applies and restores it
// for the next handler.
func (p AuthRateLimitPolicy) countersFor(r *http.Request) ([]counter, error) {
	var out []counter
	if ip := clientIP(r); p.ipLimit > 0 && ip != "" {
		out = append(out, p.counterFor("ip", ip, p.ipLimit))
	}
	if p.emailLimit <= 0 {
		return out, nil
	}

	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxAuthBodyBytes))
	if err != nil {
		return nil, err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	var creds struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(body, &creds) == nil {
		if email := strings.ToLower(strings.TrimSpace(creds.Email)); email != "" {
			sum := sha256.Sum256([]byte(email))
			out = append(out, p.counterFor("email", hex.EncodeToString(sum[:]), p.emailLimit))
		}
	}
	return out, nil
}

func (p AuthRateLimitPolicy) reject(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, c counter, attempts int64) {
	if logg != nil {
		subjectField := "ip"
		if c.kind == "email" {
			subjectField = "email_hash"
		}
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"scope":          c.kind,
			"policy":         p.name,
			"attempts":       attempts,
			"limit":          c.limit,
			"window_seconds": int(p.window.Seconds()),
			subjectField:     c.subject,
		}), "auth.rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(p.window.Seconds())))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later"))
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// socket address.
func clientIP(r *http.Request) string {
	if first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); strings.TrimSpace(first) != "" {
		return strings.TrimSpace(first)
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

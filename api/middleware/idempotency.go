package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/storefront-backend/api/responses"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

// DefaultOrderIdempotencyTTL applies when no TTL is configured.
const DefaultOrderIdempotencyTTL = 7 * 24 * time.Hour

const (
	idempotencyHeader = "Idempotency-Key"

	// idempotencyClaimTTL bounds how long a crashed request can hold a key.
	idempotencyClaimTTL = 2 * time.Minute

	maxIdempotentBodyBytes = 1 << 20
)

// idempotentRoutes lists "METHOD pattern" pairs guarded by an Idempotency-Key.
var idempotentRoutes = map[string]struct{}{
	http.MethodPost + " /api/v1/orders":        {},
	http.MethodPost + " /api/v1/orders/create": {},
}

const (
	stateInProgress = "in_progress"
	stateCompleted  = "completed"
)

// storedResponse is what gets written to redis. Body is base64 on the wire via
// encoding/json's []byte handling. An in_progress record only carries the
// request hash.
type storedResponse struct {
	State       string `json:"state"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
	RequestHash string `json:"request_hash"`
}

type idempotencyGuard struct {
	store pkgredis.IdempotencyStore
	ttl   time.Duration
	logg  *logger.Logger
}

// Idempotency replays the stored response for a retried Idempotency-Key on
// order placement. A key reused with a different body is rejected.
func Idempotency(store pkgredis.IdempotencyStore, ttl time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = DefaultOrderIdempotencyTTL
	}
	g := &idempotencyGuard{store: store, ttl: ttl, logg: logg}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if g.store == nil || !requiresIdempotency(r.Method, routePattern(r)) {
				next.ServeHTTP(w, r)
				return
			}
			g.serve(w, r, next)
		})
	}
}

func (g *idempotencyGuard) serve(w http.ResponseWriter, r *http.Request, next http.Handler) {
	ctx := r.Context()

	clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	if clientKey == "" {
		responses.WriteError(ctx, g.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxIdempotentBodyBytes))
	if err != nil {
		responses.WriteError(ctx, g.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	fingerprint := fingerprintBody(body)
	key := g.store.IdempotencyKey(scopeFor(r), clientKey)

	claimed, err := g.claim(ctx, key, fingerprint)
	if err != nil {
		responses.WriteError(ctx, g.logg, w, err)
		return
	}
	if !claimed {
		g.answerFromRecord(w, r, key, fingerprint)
		return
	}

	// the claim is dropped unless a response gets stored, so a 5xx or a panic
	// leaves the key free for a retry
	stored := false
	defer func() {
		if !stored {
			g.release(context.WithoutCancel(ctx), key)
		}
	}()

	capture := &responseCapture{ResponseWriter: w}
	next.ServeHTTP(capture, r)

	status := capture.statusOrOK()
	if status >= http.StatusInternalServerError {
		return
	}
	stored = g.remember(ctx, key, storedResponse{
		State:       stateCompleted,
		Status:      status,
		ContentType: capture.Header().Get("Content-Type"),
		Body:        capture.body.Bytes(),
		RequestHash: fingerprint,
	})
}

// claim reserves key for this request with an in_progress marker. false means
// another request got there first.
func (g *idempotencyGuard) claim(ctx context.Context, key, fingerprint string) (bool, error) {
	marker, err := json.Marshal(storedResponse{State: stateInProgress, RequestHash: fingerprint})
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode idempotency claim")
	}
	ok, err := g.store.SetNX(ctx, key, string(marker), min(g.ttl, idempotencyClaimTTL))
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key")
	}
	return ok, nil
}

// answerFromRecord handles a key someone else holds: replay a finished
// response, or refuse while the first request is still running.
func (g *idempotencyGuard) answerFromRecord(w http.ResponseWriter, r *http.Request, key, fingerprint string) {
	ctx := r.Context()
	prior, err := g.lookup(ctx, key)
	switch {
	case err != nil:
		responses.WriteError(ctx, g.logg, w, err)
	case prior != nil && prior.RequestHash != fingerprint:
		responses.WriteError(ctx, g.logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
	case prior == nil || prior.State != stateCompleted:
		responses.WriteError(ctx, g.logg, w, pkgerrors.New(pkgerrors.CodeConflict, "a request with this Idempotency-Key is still in progress"))
	default:
		prior.replay(w)
	}
}

func (g *idempotencyGuard) lookup(ctx context.Context, key string) (*storedResponse, error) {
	raw, err := g.store.Get(ctx, key)
	if errors.Is(err, redis.Nil) || (err == nil && raw == "") {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency")
	}

	var resp storedResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record")
	}
	return &resp, nil
}

func (g *idempotencyGuard) remember(ctx context.Context, key string, resp storedResponse) bool {
	payload, err := json.Marshal(resp)
	if err == nil {
		err = g.store.Set(ctx, key, string(payload), g.ttl)
	}
	if err != nil {
		if g.logg != nil {
			g.logg.Error(ctx, "persist idempotency record", err)
		}
		return false
	}
	return true
}

func (g *idempotencyGuard) release(ctx context.Context, key string) {
	if err := g.store.Del(ctx, key); err != nil && g.logg != nil {
		g.logg.Error(ctx, "release idempotency key", err)
	}
}

func (s *storedResponse) replay(w http.ResponseWriter) {
	if s.ContentType != "" {
		w.Header().Set("Content-Type", s.ContentType)
	}
	w.WriteHeader(s.Status)
	_, _ = w.Write(s.Body)
}

// scopeFor keeps keys from different users or endpoints apart.
func scopeFor(r *http.Request) string {
	return UserIDFromContext(r.Context()) + "|" + r.Method + "|" + r.URL.Path
}

func fingerprintBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func routePattern(r *http.Request) string {
	if r == nil {
		return ""
	}
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

func requiresIdempotency(method, pattern string) bool {
	if pattern != "/" {
		pattern = strings.TrimSuffix(pattern, "/")
	}
	_, ok := idempotentRoutes[method+" "+pattern]
	return ok
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *responseCapture) statusOrOK() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}

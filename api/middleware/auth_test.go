package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
)

var (
	testJWT = config.JWTConfig{
		Secret:            "middleware-secret",
		Issuer:            "storefront-test",
		ExpirationMinutes: 15,
	}
	testSessionCfg = config.SessionConfig{CookieName: "token", RefreshCookieName: "refresh_token"}
)

type stubSessionChecker struct {
	active map[string]bool
	err    error
}

func (s stubSessionChecker) HasSession(_ context.Context, accessID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.active[accessID], nil
}

func mintToken(t *testing.T, userID uuid.UUID, jti string, now time.Time) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testJWT, now, pkgAuth.AccessTokenPayload{UserID: userID, Email: "a@example.com", JTI: jti})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func sessionProbe(seen *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestSessionFromCookie(t *testing.T) {
	userID := uuid.New()
	token := mintToken(t, userID, "jti-cookie", time.Now())
	checker := stubSessionChecker{active: map[string]bool{"jti-cookie": true}}

	var seen string
	handler := Session(testJWT, testSessionCfg, checker, nil)(sessionProbe(&seen))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if seen != userID.String() {
		t.Fatalf("expected user %s in context, got %q", userID, seen)
	}
}

func TestSessionFromBearerHeader(t *testing.T) {
	userID := uuid.New()
	token := mintToken(t, userID, "jti-bearer", time.Now())
	checker := stubSessionChecker{active: map[string]bool{"jti-bearer": true}}

	var seen string
	handler := Session(testJWT, testSessionCfg, checker, nil)(sessionProbe(&seen))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen != userID.String() {
		t.Fatalf("expected user %s in context, got %q", userID, seen)
	}
}

func TestSessionStaysAnonymous(t *testing.T) {
	userID := uuid.New()
	cases := map[string]func(*http.Request){
		"no token": func(*http.Request) {},
		"garbage token": func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "token", Value: "not-a-jwt"})
		},
		"expired token": func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "token", Value: mintToken(t, userID, "jti-live", time.Now().Add(-time.Hour))})
		},
		"revoked session": func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "token", Value: mintToken(t, userID, "jti-revoked", time.Now())})
		},
	}
	checker := stubSessionChecker{active: map[string]bool{"jti-live": true}}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			seen := "unset"
			handler := Session(testJWT, testSessionCfg, checker, nil)(sessionProbe(&seen))
			req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
			mutate(req)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusNoContent {
				t.Fatalf("expected request to continue, got %d", rec.Code)
			}
			if seen != "" {
				t.Fatalf("expected anonymous context, got %q", seen)
			}
		})
	}
}

func TestSessionStoreFailureIsDependencyError(t *testing.T) {
	token := mintToken(t, uuid.New(), "jti-x", time.Now())
	checker := stubSessionChecker{err: errors.New("redis down")}

	called := false
	handler := Session(testJWT, testSessionCfg, checker, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if called {
		t.Fatal("handler should not run when the session store fails")
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestRequireSession(t *testing.T) {
	handler := RequireSession(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req = req.WithContext(WithUserID(req.Context(), uuid.NewString()))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with session, got %d", rec.Code)
	}
}

func TestAccessTokenPrefersCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "from-cookie"})
	req.Header.Set("Authorization", "Bearer from-header")

	if got := AccessToken(req, testSessionCfg); got != "from-cookie" {
		t.Fatalf("expected cookie token, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic abc")
	if got := AccessToken(req, testSessionCfg); got != "" {
		t.Fatalf("expected no token for basic auth, got %q", got)
	}
}

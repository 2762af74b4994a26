package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/security"
)

var testPasswordCfg = config.PasswordConfig{ArgonMemoryKB: 8 * 1024, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "secret",
		Issuer:                 "storefront",
		ExpirationMinutes:      30,
		RefreshTokenTTLMinutes: 120,
	}
}

func TestServiceLoginIssuesTokens(t *testing.T) {
	password := "shopper-secret"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "shopper@example.com",
		PasswordHash: mustHashPassword(t, password),
	}
	cfg := testJWTConfig()
	svc, sessions, repo := buildTestService(t, user, cfg)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: " Shopper@Example.com ", Password: password})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != user.ID || claims.Email != user.Email {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if sessions.generatedFor[claims.ID] != user.ID {
		t.Fatalf("session not bound to jti %s", claims.ID)
	}
	if resp.RefreshToken != "refresh-token" {
		t.Fatalf("unexpected refresh token %q", resp.RefreshToken)
	}
	if resp.User == nil || resp.User.LastLoginAt == nil {
		t.Fatalf("expected last login to be recorded")
	}
	if repo.lastLogin.IsZero() {
		t.Fatalf("expected repository last login update")
	}
}

func TestServiceLoginInvalidCredentials(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Email:        "shopper@example.com",
		PasswordHash: mustHashPassword(t, "right-password"),
	}
	svc, _, _ := buildTestService(t, user, testJWTConfig())

	for name, req := range map[string]LoginRequest{
		"wrong password": {Email: user.Email, Password: "wrong-password"},
		"unknown email":  {Email: "nobody@example.com", Password: "right-password"},
		"blank":          {},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), req)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
				t.Fatalf("expected unauthorized error, got %v", err)
			}
			if typed.Message() != invalidCredentialsMessage {
				t.Fatalf("unexpected message %q", typed.Message())
			}
		})
	}
}

func TestServiceLoginUnknownEmailPaysHashCost(t *testing.T) {
	svc, _, _ := buildTestService(t, &models.User{ID: uuid.New(), Email: "shopper@example.com"}, testJWTConfig())

	if _, err := svc.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "whatever"}); err == nil {
		t.Fatal("expected unknown email to fail")
	}
	impl, ok := svc.(*service)
	if !ok {
		t.Fatalf("unexpected service type %T", svc)
	}
	if !strings.HasPrefix(impl.decoy, "$argon2id$") {
		t.Fatalf("expected decoy hash to be built, got %q", impl.decoy)
	}
}

func TestServiceRefreshRotatesSession(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "shopper@example.com", PasswordHash: mustHashPassword(t, "password123")}
	cfg := testJWTConfig()
	svc, sessions, _ := buildTestService(t, user, cfg)

	login, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "password123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), login.AccessToken, login.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	claims, err := pkgAuth.ParseAccessToken(cfg, refreshed.AccessToken)
	if err != nil {
		t.Fatalf("parse refreshed token: %v", err)
	}
	if claims.ID != sessions.rotatedTo {
		t.Fatalf("expected jti %s, got %s", sessions.rotatedTo, claims.ID)
	}
	if refreshed.RefreshToken != "rotated-token" {
		t.Fatalf("unexpected refresh token %q", refreshed.RefreshToken)
	}

	sessions.rotateErr = session.ErrInvalidRefreshToken
	_, err = svc.Refresh(context.Background(), login.AccessToken, "stale")
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for rejected refresh, got %v", err)
	}
}

func TestServiceRefreshRejectsGarbage(t *testing.T) {
	svc, _, _ := buildTestService(t, nil, testJWTConfig())
	if _, err := svc.Refresh(context.Background(), "", "x"); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := svc.Refresh(context.Background(), "not-a-jwt", "x"); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestServiceLogout(t *testing.T) {
	svc, sessions, _ := buildTestService(t, nil, testJWTConfig())
	if err := svc.Logout(context.Background(), ""); err != nil {
		t.Fatalf("logout without session: %v", err)
	}
	if err := svc.Logout(context.Background(), "jti-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "jti-1" {
		t.Fatalf("expected jti-1 revoked, got %v", sessions.revoked)
	}
}

func buildTestService(t *testing.T, user *models.User, jwtCfg config.JWTConfig) (Service, *stubSessionManager, *stubUserRepo) {
	t.Helper()
	repo := &stubUserRepo{user: user}
	sessions := &stubSessionManager{refreshToken: "refresh-token", generatedFor: map[string]uuid.UUID{}}
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      jwtCfg,
		PasswordConfig: testPasswordCfg,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, sessions, repo
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordCfg)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

type stubUserRepo struct {
	user      *models.User
	lastLogin time.Time
}

func (s *stubUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *stubUserRepo) UpdateLastLogin(_ context.Context, _ uuid.UUID, at time.Time) error {
	s.lastLogin = at
	return nil
}

func (s *stubUserRepo) UpdatePasswordHash(context.Context, uuid.UUID, string) error {
	return nil
}

type stubSessionManager struct {
	refreshToken string
	generatedFor map[string]uuid.UUID
	rotatedTo    string
	rotateErr    error
	revoked      []string
}

func (s *stubSessionManager) Generate(_ context.Context, accessID string, userID uuid.UUID) (string, error) {
	s.generatedFor[accessID] = userID
	return s.refreshToken, nil
}

func (s *stubSessionManager) Rotate(_ context.Context, oldAccessID string, userID uuid.UUID, provided string) (string, string, error) {
	if s.rotateErr != nil {
		return "", "", s.rotateErr
	}
	if s.generatedFor[oldAccessID] != userID || provided != s.refreshToken {
		return "", "", errors.New("unexpected rotate input")
	}
	s.rotatedTo = session.NewAccessID()
	return s.rotatedTo, "rotated-token", nil
}

func (s *stubSessionManager) Revoke(_ context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

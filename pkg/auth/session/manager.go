package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	redisclient "github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

const refreshTokenBytes = 32

var (
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	errAccessIDRequired    = errors.New("access id is required")
)

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	GetDel(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	AccessSessionKey(accessID string) string
}

// record is the value stored under each access id. Only a digest of the
// refresh token is kept so a redis dump cannot be replayed.
type record struct {
	UserID      string    `json:"user_id"`
	RefreshHash string    `json:"refresh_hash"`
	IssuedAt    time.Time `json:"issued_at"`
}

func (r record) matches(userID uuid.UUID, token string) bool {
	digest := digestToken(token)
	sameToken := subtle.ConstantTimeCompare([]byte(r.RefreshHash), []byte(digest)) == 1
	return sameToken && r.UserID == userID.String()
}

// Manager tracks the server side of a login session: one Redis entry per
// access token jti holding the refresh token and the owning user.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
	now   func() time.Time
}

// AccessSessionChecker exposes the read-only surface needed by middleware.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	ttl := cfg.RefreshTokenTTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("refresh token ttl must be positive")
	}
	accessTTL := cfg.AccessTokenTTL()
	if ttl <= accessTTL {
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", ttl, accessTTL)
	}

	return &Manager{
		store: client,
		keyer: client,
		ttl:   ttl,
		now:   time.Now,
	}, nil
}

// Generate creates a refresh token bound to accessID and userID.
func (m *Manager) Generate(ctx context.Context, accessID string, userID uuid.UUID) (string, error) {
	if strings.TrimSpace(accessID) == "" {
		return "", errAccessIDRequired
	}
	if userID == uuid.Nil {
		return "", errors.New("user id is required")
	}
	return m.mint(ctx, accessID, userID)
}

// Rotate claims the session under oldAccessID and, when the refresh token
// and user match, issues a fresh access id and refresh token. The old session
// is consumed either way, so a replayed or guessed refresh token ends it.
func (m *Manager) Rotate(ctx context.Context, oldAccessID string, userID uuid.UUID, provided string) (string, string, error) {
	if strings.TrimSpace(oldAccessID) == "" || strings.TrimSpace(provided) == "" {
		return "", "", ErrInvalidRefreshToken
	}

	raw, err := m.store.GetDel(ctx, m.keyer.AccessSessionKey(oldAccessID))
	if errors.Is(err, redislib.Nil) {
		return "", "", ErrInvalidRefreshToken
	}
	if err != nil {
		return "", "", err
	}

	var stored record
	if json.Unmarshal([]byte(raw), &stored) != nil || !stored.matches(userID, provided) {
		return "", "", ErrInvalidRefreshToken
	}

	accessID := NewAccessID()
	token, err := m.mint(ctx, accessID, userID)
	if err != nil {
		return "", "", err
	}
	return accessID, token, nil
}

// Revoke deletes the session tied to the access identifier.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return errAccessIDRequired
	}
	return m.store.Del(ctx, m.keyer.AccessSessionKey(accessID))
}

// HasSession reports whether the provided access ID still has an active session.
func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if strings.TrimSpace(accessID) == "" {
		return false, errAccessIDRequired
	}
	if _, err := m.store.Get(ctx, m.keyer.AccessSessionKey(accessID)); err != nil {
		if errors.Is(err, redislib.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// NewAccessID produces a stable identifier used as the JWT jti/Redis key.
func NewAccessID() string {
	return uuid.NewString()
}

// mint stores a new session under accessID and returns its refresh token.
func (m *Manager) mint(ctx context.Context, accessID string, userID uuid.UUID) (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	payload, err := json.Marshal(record{
		UserID:      userID.String(),
		RefreshHash: digestToken(token),
		IssuedAt:    m.clock(),
	})
	if err != nil {
		return "", fmt.Errorf("encoding session: %w", err)
	}
	if err := m.store.Set(ctx, m.keyer.AccessSessionKey(accessID), string(payload), m.ttl); err != nil {
		return "", err
	}
	return token, nil
}

func digestToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (m *Manager) clock() time.Time {
	if m.now == nil {
		return time.Now().UTC()
	}
	return m.now().UTC()
}

package redis

import "strings"

// Every key lives under "sf:" so the storefront can share a Redis instance.
const (
	keyNamespace      = "sf"
	idempotencyPrefix = "idempotency"
	rateLimitPrefix   = "rate_limit"
	sessionPrefix     = "session"
)

func (c *Client) IdempotencyKey(scope, id string) string {
	return joinKey(idempotencyPrefix, scope, id)
}

func (c *Client) RateLimitKey(scope string) string {
	return joinKey(rateLimitPrefix, scope)
}

// AccessSessionKey is keyed by the access token jti.
func (c *Client) AccessSessionKey(accessID string) string {
	return joinKey(sessionPrefix, "access", accessID)
}

func joinKey(parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}

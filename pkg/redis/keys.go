package redis

import (
	"strings"
)

const keyNamespace = "seedshop"

// Key families under the seedshop namespace.
const (
	familyCart        = "cart"
	familyIdempotency = "idempotency"
	familyRateLimit   = "rate_limit"
	familyWebhook     = "webhook"
	familyLock        = "lock"
)

// CartKey holds a user's serialized cart.
func (c *Client) CartKey(userID string) string {
	return buildKey(familyCart, userID)
}

// IdempotencyKey holds the replayable response for a client request key.
func (c *Client) IdempotencyKey(scope, id string) string {
	return buildKey(familyIdempotency, scope, id)
}

func (c *Client) RateLimitKey(scope string) string {
	return buildKey(familyRateLimit, scope)
}

// WebhookEventKey marks a provider event as delivered.
func (c *Client) WebhookEventKey(provider, eventID string) string {
	return buildKey(familyWebhook, provider, eventID)
}

func (c *Client) LockKey(name string) string {
	return buildKey(familyLock, name)
}

// buildKey joins the non-empty parts behind the namespace.
func buildKey(parts ...string) string {
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

package redis

import "strings"

const keyNamespace = "km"

// Key families under the km: namespace.
const (
	familyIdempotency = "idempotency"
	familyRateLimit   = "rate_limit"
	familySession     = "session"
	familyFeed        = "feed"
)

// namespacedKey joins non-empty parts under the km namespace.
func namespacedKey(family string, parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	b.WriteByte(':')
	b.WriteString(family)
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteByte(':')
			b.WriteString(part)
		}
	}
	return b.String()
}

func (c *Client) IdempotencyKey(scope, id string) string {
	return namespacedKey(familyIdempotency, scope, id)
}

func (c *Client) RateLimitKey(scope string) string {
	return namespacedKey(familyRateLimit, scope)
}

func (c *Client) AccessSessionKey(accessID string) string {
	return namespacedKey(familySession, "access", accessID)
}

// UserSessionsKey names the set of access ids opened by one user.
func (c *Client) UserSessionsKey(userID string) string {
	return namespacedKey(familySession, "user", userID)
}

// FeedChannel is the pub/sub channel carrying change events for topic.
func (c *Client) FeedChannel(topic string) string {
	return namespacedKey(familyFeed, topic)
}

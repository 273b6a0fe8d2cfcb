package redis

import "fmt"

const (
	resolutionPrefix = "url:"
	counterPrefix    = "clicks:"
	rateLimitPrefix  = "ratelimit:"
)

// Keyspace builds keys for the logically distinct namespaces sharing one
// Redis database. Resolution, counter and rate limit keys never collide
// because each carries its own tag after the optional namespace.
type Keyspace struct {
	namespace string
}

func NewKeyspace(namespace string) Keyspace {
	return Keyspace{namespace: namespace}
}

func (k Keyspace) Resolution(shortCode string) string {
	return k.namespace + resolutionPrefix + shortCode
}

func (k Keyspace) Counter(shortCode string) string {
	return k.namespace + counterPrefix + shortCode
}

func (k Keyspace) RateLimit(clientAddr, window string) string {
	return fmt.Sprintf("%s%s%s:%s", k.namespace, rateLimitPrefix, clientAddr, window)
}

// internal/domain/accumulator/cache.go
package accumulator

import (
	"context"
	"time"
)

// Cache stores an ordered list of strings under a key with an expiry.
// An expired or missing key reads as an empty list.
type Cache interface {
	Append(ctx context.Context, key string, values []string, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]string, error)
	Delete(ctx context.Context, key string) error
}

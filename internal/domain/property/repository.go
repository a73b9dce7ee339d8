// internal/domain/property/repository.go
package property

import "context"

// Store holds small named string properties.
// Get returns ErrNotFound when the key has no value.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

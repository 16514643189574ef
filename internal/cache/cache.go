package cache

import (
	"context"
	"time"
)

// BytesCache is a string-keyed byte store. ttl <= 0 means "keep forever".
type BytesCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

package cache

import (
	"context"
	"time"
)

// Cache stores JSON encoded values by key. A miss is (false, nil).
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	Del(ctx context.Context, keys ...string) error

	// Lease claims an absent key for a later FillJSON and returns its token.
	// A leased key reads as a miss. Del drops the lease.
	Lease(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	// FillJSON stores val only while key still holds the lease token.
	FillJSON(ctx context.Context, key, token string, val any, ttl time.Duration) (bool, error)
}

var leaseMark = []byte("\x00lease:")

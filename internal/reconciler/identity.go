package reconciler

import (
	"context"
	"fmt"
	"time"
)

// deviceIDCacheKey is the cache key for the backend-assigned device id.
const deviceIDCacheKey = "device_id"

// deviceIDTTL bounds how long a resolved identity is trusted before the
// backend is consulted again.
const deviceIDTTL = 60 * time.Minute

// ResolveDeviceID maps this device's token to its backend-assigned id.
// The mapping is cached for an hour; a cache miss triggers one backend
// lookup. An unregistered device surfaces backend.ErrDeviceNotFound so
// callers can treat it as "nothing to do yet" rather than a failure.
func (r *Reconciler) ResolveDeviceID(ctx context.Context) (string, error) {
	if id, ok, err := r.store.CacheGet(ctx, deviceIDCacheKey); err == nil && ok {
		return id, nil
	}

	id, err := r.client.LookupDevice(ctx, r.deviceToken)
	if err != nil {
		return "", fmt.Errorf("resolve device id: %w", err)
	}

	ttl := deviceIDTTL
	if err := r.store.CacheSet(ctx, deviceIDCacheKey, id, &ttl); err != nil {
		// Cache failure only costs an extra lookup next time.
		return id, nil
	}
	return id, nil
}

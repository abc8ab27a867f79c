package storage

import (
	"context"
	"time"
)

// Status reports "healthy" or "unhealthy: <reason>" for the health endpoint.
func Status(ctx context.Context, store ObjectStore) string {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := store.HealthCheck(ctx); err != nil {
		return "unhealthy: " + err.Error()
	}
	return "healthy"
}

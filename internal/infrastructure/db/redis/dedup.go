package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupTTL = 24 * time.Hour

type keyValueStore interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// DedupChecker provides idempotency checks for stream consumers.
// Key format: analytics:dedup:<event_type>:<patient_id>
type DedupChecker struct {
	client keyValueStore
	ttl    time.Duration
}

// NewDedupChecker creates a DedupChecker wrapping the given Redis client.
func NewDedupChecker(client keyValueStore) *DedupChecker {
	return &DedupChecker{client: client, ttl: dedupTTL}
}

// IsDuplicate reports whether this event has already been processed.
func (d *DedupChecker) IsDuplicate(ctx context.Context, patientID, eventType string) (bool, error) {
	n, err := d.client.Exists(ctx, dedupKey(patientID, eventType)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return n > 0, nil
}

// Mark records that this event has been processed.
func (d *DedupChecker) Mark(ctx context.Context, patientID, eventType string) error {
	if err := d.client.Set(ctx, dedupKey(patientID, eventType), "1", d.ttl).Err(); err != nil {
		return fmt.Errorf("dedup mark: %w", err)
	}
	return nil
}

func dedupKey(patientID, eventType string) string {
	return fmt.Sprintf("analytics:dedup:%s:%s", eventType, patientID)
}

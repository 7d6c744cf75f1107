package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/model"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/port"
)

const keyPrefix = "credit:income:"

// DefaultTTL bounds how stale a cached snapshot may be.
const DefaultTTL = 15 * time.Minute

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}
	return client, nil
}

// IncomeSnapshotCache is a read-through cache in front of an
// IncomeSignalSource. Cache failures degrade to the underlying source.
// Absent snapshots are not cached.
type IncomeSnapshotCache struct {
	client redis.Cmdable
	next   port.IncomeSignalSource
	ttl    time.Duration
	logger *slog.Logger
}

var _ port.IncomeSignalSource = (*IncomeSnapshotCache)(nil)

// NewIncomeSnapshotCache wraps next. A non-positive ttl uses DefaultTTL.
func NewIncomeSnapshotCache(client redis.Cmdable, next port.IncomeSignalSource, ttl time.Duration, logger *slog.Logger) *IncomeSnapshotCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IncomeSnapshotCache{client: client, next: next, ttl: ttl, logger: logger}
}

// LatestIncomeSnapshot serves from Redis when possible, otherwise loads from
// the wrapped source and stores the result.
func (c *IncomeSnapshotCache) LatestIncomeSnapshot(ctx context.Context, borrowerID string) (*model.IncomeSnapshot, error) {
	key := keyPrefix + borrowerID

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var snap model.IncomeSnapshot
		if jsonErr := json.Unmarshal(raw, &snap); jsonErr == nil {
			return &snap, nil
		}
		c.logger.Warn("discarding corrupt cached income snapshot", "borrower_id", borrowerID)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("income cache read failed", "borrower_id", borrowerID, "error", err)
	}

	snap, err := c.next.LatestIncomeSnapshot(ctx, borrowerID)
	if err != nil || snap == nil {
		return snap, err
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return snap, nil
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("income cache write failed", "borrower_id", borrowerID, "error", err)
	}
	return snap, nil
}

// Invalidate drops the borrower's cached snapshot.
func (c *IncomeSnapshotCache) Invalidate(ctx context.Context, borrowerID string) error {
	if err := c.client.Del(ctx, keyPrefix+borrowerID).Err(); err != nil {
		return fmt.Errorf("invalidate income snapshot: %w", err)
	}
	return nil
}

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/model"
)

type countingSource struct {
	calls int
	snap  *model.IncomeSnapshot
	err   error
}

func (s *countingSource) LatestIncomeSnapshot(context.Context, string) (*model.IncomeSnapshot, error) {
	s.calls++
	return s.snap, s.err
}

func newCache(t *testing.T, src *countingSource) (*IncomeSnapshotCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewIncomeSnapshotCache(client, src, time.Minute, nil), mr
}

func snapshot(net int64) *model.IncomeSnapshot {
	return &model.IncomeSnapshot{
		NetMonthlyIncome: decimal.NewNullDecimal(decimal.NewFromInt(net)),
		CapturedAt:       time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestIncomeSnapshotCache_ReadThrough(t *testing.T) {
	src := &countingSource{snap: snapshot(30000)}
	c, mr := newCache(t, src)
	ctx := context.Background()

	first, err := c.LatestIncomeSnapshot(ctx, "borrower-1")
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := c.LatestIncomeSnapshot(ctx, "borrower-1")
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.Equal(t, 1, src.calls)
	assert.True(t, second.NetMonthlyIncome.Decimal.Equal(decimal.NewFromInt(30000)))
	assert.False(t, second.AvgMonthlyIncome.Valid)
	assert.True(t, mr.Exists(keyPrefix+"borrower-1"))
	assert.Equal(t, time.Minute, mr.TTL(keyPrefix+"borrower-1"))
}

func TestIncomeSnapshotCache_Expiry(t *testing.T) {
	src := &countingSource{snap: snapshot(30000)}
	c, mr := newCache(t, src)
	ctx := context.Background()

	_, err := c.LatestIncomeSnapshot(ctx, "borrower-1")
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	_, err = c.LatestIncomeSnapshot(ctx, "borrower-1")
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestIncomeSnapshotCache_AbsentNotCached(t *testing.T) {
	src := &countingSource{}
	c, mr := newCache(t, src)
	ctx := context.Background()

	snap, err := c.LatestIncomeSnapshot(ctx, "borrower-1")
	require.NoError(t, err)
	assert.Nil(t, snap)
	assert.False(t, mr.Exists(keyPrefix+"borrower-1"))
}

func TestIncomeSnapshotCache_SourceError(t *testing.T) {
	src := &countingSource{err: errors.New("db down")}
	c, _ := newCache(t, src)

	_, err := c.LatestIncomeSnapshot(context.Background(), "borrower-1")
	assert.Error(t, err)
}

func TestIncomeSnapshotCache_RedisDown(t *testing.T) {
	src := &countingSource{snap: snapshot(12000)}
	c, mr := newCache(t, src)
	mr.Close()

	snap, err := c.LatestIncomeSnapshot(context.Background(), "borrower-1")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 1, src.calls)
}

func TestIncomeSnapshotCache_Invalidate(t *testing.T) {
	src := &countingSource{snap: snapshot(30000)}
	c, mr := newCache(t, src)
	ctx := context.Background()

	_, err := c.LatestIncomeSnapshot(ctx, "borrower-1")
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, "borrower-1"))
	assert.False(t, mr.Exists(keyPrefix+"borrower-1"))

	src.snap = snapshot(50000)
	snap, err := c.LatestIncomeSnapshot(ctx, "borrower-1")
	require.NoError(t, err)
	assert.True(t, snap.NetMonthlyIncome.Decimal.Equal(decimal.NewFromInt(50000)))
}

func TestIncomeSnapshotCache_CorruptEntry(t *testing.T) {
	src := &countingSource{snap: snapshot(30000)}
	c, mr := newCache(t, src)
	require.NoError(t, mr.Set(keyPrefix+"borrower-1", "{not json"))

	snap, err := c.LatestIncomeSnapshot(context.Background(), "borrower-1")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 1, src.calls)
}

package adapter

import (
	"context"
	"testing"
	"time"

	"parcel-ops/internal/core/cache"
	"parcel-ops/internal/features/deliveries/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSnapshotCache(t *testing.T) (*SnapshotCacheAdapter, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	c, err := cache.NewRedisAdapter("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	return NewSnapshotCacheAdapter(c, time.Minute), mr
}

func samplePage() *domain.DeliveryPage {
	return &domain.DeliveryPage{
		Records: []domain.DeliveryRecord{
			{AssignmentID: "a-1", ParcelID: "p-1", Status: domain.StatusAssigned, DeliveryFee: 5},
		},
		RecordCount: 1,
		Page:        domain.PageInfo{TotalAssignments: 1, TotalPages: 1, Number: 0},
	}
}

func TestSnapshotCache_RoundTrip(t *testing.T) {
	sc, _ := newSnapshotCache(t)
	ctx := context.Background()

	require.NoError(t, sc.SetPage(ctx, 0, 20, samplePage()))

	got, err := sc.GetPage(ctx, 0, 20)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Records, 1)
	assert.Equal(t, "p-1", got.Records[0].ParcelID)
	assert.Equal(t, int64(1), got.Page.TotalAssignments)
}

func TestSnapshotCache_Miss(t *testing.T) {
	sc, _ := newSnapshotCache(t)

	got, err := sc.GetPage(context.Background(), 3, 20)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSnapshotCache_DistinctPageAndSizeKeys(t *testing.T) {
	sc, _ := newSnapshotCache(t)
	ctx := context.Background()

	require.NoError(t, sc.SetPage(ctx, 0, 20, samplePage()))

	got, err := sc.GetPage(ctx, 0, 50)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = sc.GetPage(ctx, 1, 20)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSnapshotCache_InvalidateOrphansPages(t *testing.T) {
	sc, _ := newSnapshotCache(t)
	ctx := context.Background()

	require.NoError(t, sc.SetPage(ctx, 0, 20, samplePage()))
	require.NoError(t, sc.Invalidate(ctx))

	got, err := sc.GetPage(ctx, 0, 20)
	require.NoError(t, err)
	assert.Nil(t, got)

	// New writes land under the fresh generation and are readable again.
	require.NoError(t, sc.SetPage(ctx, 0, 20, samplePage()))
	got, err = sc.GetPage(ctx, 0, 20)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestSnapshotCache_PagesExpire(t *testing.T) {
	sc, mr := newSnapshotCache(t)
	ctx := context.Background()

	require.NoError(t, sc.SetPage(ctx, 0, 20, samplePage()))
	mr.FastForward(2 * time.Minute)

	got, err := sc.GetPage(ctx, 0, 20)
	require.NoError(t, err)
	assert.Nil(t, got)
}

package cache

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/asset-tracker/internal/domain"
)

type fakeClient struct {
	values map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newFakeClient() *fakeClient {
	return &fakeClient{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeClient) Get(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeClient) MGet(_ context.Context, keys ...string) *redis.SliceCmd {
	if f.getErr != nil {
		return redis.NewSliceResult(nil, f.getErr)
	}
	out := make([]interface{}, len(keys))
	for i, k := range keys {
		if v, ok := f.values[k]; ok {
			out[i] = v
		}
	}
	return redis.NewSliceResult(out, nil)
}

func (f *fakeClient) Incr(_ context.Context, key string) *redis.IntCmd {
	n, _ := strconv.ParseInt(f.values[key], 10, 64)
	n++
	f.values[key] = strconv.FormatInt(n, 10)
	return redis.NewIntResult(n, nil)
}

func (f *fakeClient) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.values[key] = string(value.([]byte))
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeClient) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.values[k]; ok {
			delete(f.values, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestSummaryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	c := NewSummaryCache(client, time.Minute)

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	summary := &domain.StockSummary{
		TotalAssets: 3,
		TotalValue:  decimal.RequireFromString("2500.50"),
		ByStatus:    []domain.StatusCount{{Status: domain.AssetStatusUnderRepair, Count: 3}},
	}
	generation, err := c.Generation(ctx)
	require.NoError(t, err)
	assert.Zero(t, generation)
	require.NoError(t, c.Set(ctx, generation, summary))
	assert.Equal(t, time.Minute, client.ttls[summaryKey])

	got, ok, err := c.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, got.TotalAssets)
	assert.True(t, summary.TotalValue.Equal(got.TotalValue))
	assert.Equal(t, domain.AssetStatusUnderRepair, got.ByStatus[0].Status)

	require.NoError(t, c.Invalidate(ctx))
	_, ok, err = c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	generation, err = c.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), generation)
}

func TestSummaryCacheRejectsEntryFromOlderGeneration(t *testing.T) {
	ctx := context.Background()
	c := NewSummaryCache(newFakeClient(), time.Minute)

	before, err := c.Generation(ctx)
	require.NoError(t, err)

	// A registry change lands while the summary is being computed.
	require.NoError(t, c.Invalidate(ctx))
	require.NoError(t, c.Set(ctx, before, &domain.StockSummary{TotalAssets: 1}))

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	current, err := c.Generation(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, current, &domain.StockSummary{TotalAssets: 2}))
	got, ok, err := c.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, got.TotalAssets)
}

func TestSummaryCacheSurfacesErrors(t *testing.T) {
	client := newFakeClient()
	client.getErr = errors.New("connection refused")

	_, ok, err := NewSummaryCache(client, 0).Get(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
}

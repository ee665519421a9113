package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/invoicedesk/backend/internal/domain/report"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func sampleDashboard(issued string) *report.DashboardData {
	return &report.DashboardData{
		CashFlow: report.CashFlowData{
			TotalIssued:            decimal.RequireFromString(issued),
			TotalReceived:          decimal.Zero,
			OutstandingReceivables: decimal.RequireFromString(issued),
			DSO:                    decimal.NewFromInt(30),
		},
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newTestMemoryCache(t *testing.T, clock *fakeClock) *InMemoryDashboardCache {
	t.Helper()
	c := NewInMemoryDashboardCache(WithInMemoryClock(clock.Now))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestInMemoryDashboardCache_GetSet(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestMemoryCache(t, clock)
	ctx := context.Background()

	got, err := c.Get(ctx, "2026")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, c.Set(ctx, "2026", sampleDashboard("1200"), time.Minute))

	got, err = c.Get(ctx, "2026")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "1200", got.CashFlow.TotalIssued.String())

	hits, misses := c.GetStats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestInMemoryDashboardCache_ReturnsCopies(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestMemoryCache(t, clock)
	ctx := context.Background()

	stored := sampleDashboard("1200")
	stored.ClientReliability.LatePayers = []report.LatePayer{{CustomerID: 1, Name: "Ada Lovelace", LateCount: 2}}
	require.NoError(t, c.Set(ctx, "2026", stored, time.Minute))
	stored.ClientReliability.LatePayers[0].LateCount = 99

	first, err := c.Get(ctx, "2026")
	require.NoError(t, err)
	require.Len(t, first.ClientReliability.LatePayers, 1)
	assert.Equal(t, 2, first.ClientReliability.LatePayers[0].LateCount)

	first.ClientReliability.LatePayers[0].LateCount = 7
	first.ClientReliability.LatePayers = append(first.ClientReliability.LatePayers, report.LatePayer{CustomerID: 2})

	second, err := c.Get(ctx, "2026")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	require.Len(t, second.ClientReliability.LatePayers, 1)
	assert.Equal(t, 2, second.ClientReliability.LatePayers[0].LateCount)
}

func TestInMemoryDashboardCache_SetNilIsNoop(t *testing.T) {
	c := newTestMemoryCache(t, &fakeClock{now: time.Now()})

	require.NoError(t, c.Set(context.Background(), "all", nil, time.Minute))
	assert.Equal(t, 0, c.Count())
}

func TestInMemoryDashboardCache_Expiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestMemoryCache(t, clock)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "all", sampleDashboard("10"), time.Minute))
	require.NoError(t, c.Set(ctx, "forever", sampleDashboard("20"), 0))

	clock.Advance(2 * time.Minute)

	got, err := c.Get(ctx, "all")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = c.Get(ctx, "forever")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "20", got.CashFlow.TotalIssued.String())
}

func TestInMemoryDashboardCache_Cleanup(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestMemoryCache(t, clock)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", sampleDashboard("1"), time.Second))
	require.NoError(t, c.Set(ctx, "b", sampleDashboard("2"), time.Hour))

	clock.Advance(time.Minute)
	c.doCleanup()

	assert.Equal(t, 1, c.Count())
}

func TestInMemoryDashboardCache_InvalidateAll(t *testing.T) {
	c := newTestMemoryCache(t, &fakeClock{now: time.Now()})
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "all", sampleDashboard("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "2025", sampleDashboard("2"), time.Minute))

	require.NoError(t, c.InvalidateAll(ctx))
	assert.Equal(t, 0, c.Count())
}

func TestInMemoryDashboardCache_CloseTwice(t *testing.T) {
	c := NewInMemoryDashboardCache()
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

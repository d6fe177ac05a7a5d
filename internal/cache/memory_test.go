package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	key := Key{CompanyCode: "ACME1", View: ViewActive, Variant: "u7"}

	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, key, []byte("payload"), time.Minute, 0))

	value, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("payload"), value)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()
	key := Key{CompanyCode: "ACME1", View: ViewAnalytics}

	require.NoError(t, c.Set(ctx, key, []byte("x"), 30*time.Second, 0))

	now = now.Add(29 * time.Second)
	_, ok, _ := c.Get(ctx, key)
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok, _ = c.Get(ctx, key)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_InvalidateIsPerCompany(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	acme := Key{CompanyCode: "ACME1", View: ViewActive, Variant: "u1"}
	acmeAnalytics := Key{CompanyCode: "ACME1", View: ViewAnalytics}
	other := Key{CompanyCode: "OTHER", View: ViewActive, Variant: "u1"}

	for _, k := range []Key{acme, acmeAnalytics, other} {
		require.NoError(t, c.Set(ctx, k, []byte("v"), time.Minute, 0))
	}

	require.NoError(t, c.Invalidate(ctx, "ACME1"))

	_, ok, _ := c.Get(ctx, acme)
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, acmeAnalytics)
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, other)
	assert.True(t, ok)
}

func TestMemoryCache_InvalidateWithoutEntries(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	other := Key{CompanyCode: "OTHER", View: ViewActive}
	require.NoError(t, c.Set(ctx, other, []byte("v"), time.Minute, 0))

	require.NoError(t, c.Invalidate(ctx, "EMPTY1"))
	require.NoError(t, c.Invalidate(ctx, "EMPTY1"))

	assert.Equal(t, 1, c.Len())
}

func TestMemoryCache_ReturnedValueIsACopy(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	key := Key{CompanyCode: "ACME1", View: ViewStats}
	require.NoError(t, c.Set(ctx, key, []byte("abc"), time.Minute, 0))

	value, _, _ := c.Get(ctx, key)
	value[0] = 'z'

	again, _, _ := c.Get(ctx, key)
	assert.Equal(t, []byte("abc"), again)
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			company := fmt.Sprintf("C%d", i%4)
			for j := 0; j < 200; j++ {
				key := Key{CompanyCode: company, View: ViewActive, Variant: fmt.Sprint(j % 10)}
				gen, _ := c.Generation(ctx, company)
				_ = c.Set(ctx, key, []byte("v"), time.Minute, gen)
				_, _, _ = c.Get(ctx, key)
				if j%50 == 0 {
					_ = c.Invalidate(ctx, company)
				}
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 40)
}

func TestGetOrCompute(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	key := Key{CompanyCode: "ACME1", View: ViewAnalytics}

	calls := 0
	compute := func(context.Context) (map[string]int, error) {
		calls++
		return map[string]int{"todo": calls}, nil
	}

	first, err := GetOrCompute(ctx, c, key, time.Minute, compute)
	require.NoError(t, err)
	second, err := GetOrCompute(ctx, c, key, time.Minute, compute)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)

	require.NoError(t, c.Invalidate(ctx, "ACME1"))
	third, err := GetOrCompute(ctx, c, key, time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, map[string]int{"todo": 2}, third)
}

func TestMemoryCache_SetDropsStaleGeneration(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	key := Key{CompanyCode: "ACME1", View: ViewActive, Variant: "all"}

	gen, err := c.Generation(ctx, "ACME1")
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, "ACME1"))

	require.NoError(t, c.Set(ctx, key, []byte("before write"), time.Minute, gen))
	_, ok, _ := c.Get(ctx, key)
	assert.False(t, ok)

	current, err := c.Generation(ctx, "ACME1")
	require.NoError(t, err)
	assert.Equal(t, gen+1, current)

	// Other companies keep their generation.
	otherGen, err := c.Generation(ctx, "OTHER")
	require.NoError(t, err)
	assert.Zero(t, otherGen)
}

func TestGetOrCompute_InvalidationDuringComputeIsNotStored(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	key := Key{CompanyCode: "ACME1", View: ViewActive, Variant: "all"}

	rows := 1
	compute := func(ctx context.Context) (int, error) {
		seen := rows
		if rows == 1 {
			// A write commits after the read and invalidates the company.
			rows = 0
			require.NoError(t, c.Invalidate(ctx, "ACME1"))
		}
		return seen, nil
	}

	first, err := GetOrCompute(ctx, c, key, time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, 1, first)
	assert.Equal(t, 0, c.Len())

	second, err := GetOrCompute(ctx, c, key, time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, 0, second)
	assert.Equal(t, 1, c.Len())
}

func TestGetOrCompute_ErrorIsNotCached(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	key := Key{CompanyCode: "ACME1", View: ViewStats}

	_, err := GetOrCompute(ctx, c, key, time.Minute, func(context.Context) (int, error) {
		return 0, assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 0, c.Len())
}

func TestPolicy_TTL(t *testing.T) {
	p := Policy{TaskList: 30 * time.Second, Analytics: 5 * time.Minute}
	assert.Equal(t, 30*time.Second, p.TTL(ViewActive))
	assert.Equal(t, 30*time.Second, p.TTL(ViewCompleted))
	assert.Equal(t, 5*time.Minute, p.TTL(ViewAnalytics))
	assert.Equal(t, 5*time.Minute, p.Max())
}

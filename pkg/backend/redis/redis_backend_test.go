package redis

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/nikolaydubina/fpdecimal"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tradevine/matchcore/pkg/core"
)

// setupTestRedis initializes a Redis client for testing.
// It assumes Redis is running on localhost:6379 and skips otherwise.
func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   0,
	})
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		t.Skipf("Skipping Redis tests: Cannot connect to Redis (%v)", err)
	}
	return client
}

func setupTestBackend(t *testing.T, prefix string) *RedisBackend {
	client := setupTestRedis(t)
	backend := NewRedisBackend(client, prefix, zap.NewNop())
	require.NoError(t, backend.Flush())
	t.Cleanup(func() {
		_ = backend.Flush()
		_ = client.Close()
	})
	return backend
}

// redisOrder builds a limit order with the arrival sequence an engine
// would have assigned. The timestamp field is unexported, so the order
// is rebuilt through its JSON form with the sequence patched in.
func redisOrder(t *testing.T, id string, side core.Side, quantity, price float64, seq uint64) *core.Order {
	t.Helper()
	order, err := core.NewLimitOrder(id, "BTC-USDT", side, fpdecimal.FromFloat(quantity), fpdecimal.FromFloat(price))
	require.NoError(t, err)

	data, err := order.MarshalJSON()
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	raw["timestamp"] = seq

	patched, err := json.Marshal(raw)
	require.NoError(t, err)

	var decoded core.Order
	require.NoError(t, decoded.UnmarshalJSON(patched))
	return &decoded
}

func TestRedisBackendInsertAndGet(t *testing.T) {
	backend := setupTestBackend(t, "test:insert")

	order := redisOrder(t, "o1", core.Buy, 1.5, 100.0, 1)
	require.NoError(t, backend.Insert(order))

	stored := backend.GetOrder("o1")
	require.NotNil(t, stored)
	assert.Equal(t, "o1", stored.ID())
	assert.Equal(t, core.Buy, stored.Side())
	assert.True(t, stored.Quantity().Equal(fpdecimal.FromFloat(1.5)))
	assert.True(t, stored.Price().Equal(fpdecimal.FromFloat(100.0)))

	assert.Nil(t, backend.GetOrder("missing"))
}

func TestRedisBackendRejectsDuplicate(t *testing.T) {
	backend := setupTestBackend(t, "test:dup")

	require.NoError(t, backend.Insert(redisOrder(t, "o1", core.Buy, 1.0, 100.0, 1)))
	err := backend.Insert(redisOrder(t, "o1", core.Buy, 2.0, 101.0, 2))
	assert.ErrorIs(t, err, core.ErrOrderExists)
}

func TestRedisBackendPriceTimePriority(t *testing.T) {
	backend := setupTestBackend(t, "test:priority")

	require.NoError(t, backend.Insert(redisOrder(t, "b1", core.Buy, 1.0, 99.0, 1)))
	require.NoError(t, backend.Insert(redisOrder(t, "b2", core.Buy, 1.0, 101.0, 2)))
	require.NoError(t, backend.Insert(redisOrder(t, "b3", core.Buy, 1.0, 101.0, 3)))
	require.NoError(t, backend.Insert(redisOrder(t, "a1", core.Sell, 1.0, 103.0, 4)))
	require.NoError(t, backend.Insert(redisOrder(t, "a2", core.Sell, 1.0, 102.0, 5)))

	best := backend.PeekBest(core.Buy)
	require.NotNil(t, best)
	assert.Equal(t, "b2", best.ID(), "highest price, earliest arrival wins")

	bestAsk := backend.PeekBest(core.Sell)
	require.NotNil(t, bestAsk)
	assert.Equal(t, "a2", bestAsk.ID())

	bids := backend.OrdersBySide(core.Buy)
	require.Len(t, bids, 3)
	assert.Equal(t, "b2", bids[0].ID())
	assert.Equal(t, "b3", bids[1].ID())
	assert.Equal(t, "b1", bids[2].ID())
}

func TestRedisBackendDecrementOrRemove(t *testing.T) {
	backend := setupTestBackend(t, "test:decrement")

	order := redisOrder(t, "o1", core.Sell, 10.0, 100.0, 1)
	require.NoError(t, backend.Insert(order))

	require.NoError(t, backend.DecrementOrRemove(order, fpdecimal.FromFloat(4.0)))
	stored := backend.GetOrder("o1")
	require.NotNil(t, stored)
	assert.True(t, stored.Quantity().Equal(fpdecimal.FromFloat(6.0)))
	assert.Equal(t, 1, backend.Depth(core.Sell))

	require.NoError(t, backend.DecrementOrRemove(order, fpdecimal.FromFloat(6.0)))
	assert.Nil(t, backend.GetOrder("o1"))
	assert.Equal(t, 0, backend.Depth(core.Sell))
}

func TestRedisBackendDecrementOrRemoveErrors(t *testing.T) {
	backend := setupTestBackend(t, "test:decrement-errors")

	phantom := redisOrder(t, "ghost", core.Sell, 1.0, 100.0, 1)
	assert.ErrorIs(t, backend.DecrementOrRemove(phantom, fpdecimal.FromFloat(1.0)), core.ErrNonexistentOrder)

	order := redisOrder(t, "o1", core.Sell, 5.0, 100.0, 2)
	require.NoError(t, backend.Insert(order))
	assert.ErrorIs(t, backend.DecrementOrRemove(order, fpdecimal.FromFloat(6.0)), core.ErrInsufficientQuantity)
}

func TestRedisBackendDepth(t *testing.T) {
	backend := setupTestBackend(t, "test:depth")

	require.NoError(t, backend.Insert(redisOrder(t, "b1", core.Buy, 1.0, 99.0, 1)))
	require.NoError(t, backend.Insert(redisOrder(t, "b2", core.Buy, 1.0, 98.0, 2)))
	require.NoError(t, backend.Insert(redisOrder(t, "a1", core.Sell, 1.0, 101.0, 3)))

	assert.Equal(t, 2, backend.Depth(core.Buy))
	assert.Equal(t, 1, backend.Depth(core.Sell))
}

package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/nikolaydubina/fpdecimal"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tradevine/matchcore/pkg/core"
)

// RedisOptions represents configuration options for Redis connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

var defaultOptions = &RedisOptions{
	Addr:     "localhost:6379",
	Password: "",
	DB:       0,
}

// SetDefaultRedisOptions sets the default options for Redis connections
func SetDefaultRedisOptions(options *RedisOptions) {
	defaultOptions = options
}

// GetRedisClient creates a new Redis client using the default options
func GetRedisClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     defaultOptions.Addr,
		Password: defaultOptions.Password,
		DB:       defaultOptions.DB,
	})
}

// RedisBackend implements core.BookBackend with Redis storage. Each side
// is a sorted set scored by price (negated for bids so the best order is
// always at rank 0). Members embed the zero-padded arrival sequence, so
// equal-score members sort lexically in time priority.
type RedisBackend struct {
	sync.Mutex
	client  *redis.Client
	ctx     context.Context
	prefix  string
	bidsKey string
	asksKey string
	logger  *zap.Logger
}

// NewRedisBackend creates a new instance of RedisBackend
func NewRedisBackend(client *redis.Client, prefix string, logger *zap.Logger) *RedisBackend {
	return &RedisBackend{
		client:  client,
		ctx:     context.Background(),
		prefix:  prefix,
		bidsKey: fmt.Sprintf("%s:bids", prefix),
		asksKey: fmt.Sprintf("%s:asks", prefix),
		logger:  logger,
	}
}

func (b *RedisBackend) orderKey(orderID string) string {
	return fmt.Sprintf("%s:order:%s", b.prefix, orderID)
}

func (b *RedisBackend) sideKey(side core.Side) string {
	if side == core.Buy {
		return b.bidsKey
	}
	return b.asksKey
}

// member builds the sorted-set member for an order. The fixed-width
// sequence prefix makes lexical order equal arrival order.
func member(order *core.Order) string {
	return fmt.Sprintf("%020d:%s", order.Timestamp(), order.ID())
}

func orderIDFromMember(m string) string {
	parts := strings.SplitN(m, ":", 2)
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}

// score maps an order's price onto the side's sorted-set score. Bids are
// negated so the highest price ranks first.
func score(order *core.Order) float64 {
	if order.Side() == core.Buy {
		return -order.Price().Float64()
	}
	return order.Price().Float64()
}

// GetOrder retrieves an order from Redis by its ID
func (b *RedisBackend) GetOrder(orderID string) *core.Order {
	data, err := b.client.Get(b.ctx, b.orderKey(orderID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			b.logger.Error("failed to get order",
				zap.String("order_id", orderID),
				zap.Error(err))
		}
		return nil
	}

	var order core.Order
	if err := json.Unmarshal(data, &order); err != nil {
		b.logger.Error("failed to unmarshal order",
			zap.String("order_id", orderID),
			zap.Error(err))
		return nil
	}

	return &order
}

// Insert stores the order record and adds it to its side's sorted set
func (b *RedisBackend) Insert(order *core.Order) error {
	b.Lock()
	defer b.Unlock()

	key := b.orderKey(order.ID())
	exists, err := b.client.Exists(b.ctx, key).Result()
	if err != nil {
		return err
	}
	if exists > 0 {
		return core.ErrOrderExists
	}

	data, err := json.Marshal(order)
	if err != nil {
		return err
	}

	pipe := b.client.Pipeline()
	pipe.Set(b.ctx, key, data, 0)
	pipe.ZAdd(b.ctx, b.sideKey(order.Side()), redis.Z{
		Score:  score(order),
		Member: member(order),
	})

	_, err = pipe.Exec(b.ctx)
	return err
}

// PeekBest returns the best resting order on the given side, or nil
func (b *RedisBackend) PeekBest(side core.Side) *core.Order {
	members, err := b.client.ZRange(b.ctx, b.sideKey(side), 0, 0).Result()
	if err != nil {
		b.logger.Error("failed to peek best order",
			zap.String("side", side.String()),
			zap.Error(err))
		return nil
	}
	if len(members) == 0 {
		return nil
	}

	return b.GetOrder(orderIDFromMember(members[0]))
}

// DecrementOrRemove reduces the stored order's quantity, deleting the
// record and its sorted-set member once exhausted.
func (b *RedisBackend) DecrementOrRemove(order *core.Order, quantity fpdecimal.Decimal) error {
	b.Lock()
	defer b.Unlock()

	current := b.GetOrder(order.ID())
	if current == nil {
		return core.ErrNonexistentOrder
	}

	if quantity.GreaterThan(current.Quantity()) {
		return core.ErrInsufficientQuantity
	}

	current.DecreaseQuantity(quantity)

	if current.Quantity().Equal(fpdecimal.Zero) {
		pipe := b.client.Pipeline()
		pipe.ZRem(b.ctx, b.sideKey(current.Side()), member(current))
		pipe.Del(b.ctx, b.orderKey(current.ID()))
		_, err := pipe.Exec(b.ctx)
		return err
	}

	data, err := json.Marshal(current)
	if err != nil {
		return err
	}

	return b.client.Set(b.ctx, b.orderKey(current.ID()), data, 0).Err()
}

// Depth returns the number of resting orders on the given side
func (b *RedisBackend) Depth(side core.Side) int {
	count, err := b.client.ZCard(b.ctx, b.sideKey(side)).Result()
	if err != nil {
		b.logger.Error("failed to read side depth",
			zap.String("side", side.String()),
			zap.Error(err))
		return 0
	}
	return int(count)
}

// OrdersBySide returns the side's resting orders in priority order
func (b *RedisBackend) OrdersBySide(side core.Side) []*core.Order {
	members, err := b.client.ZRange(b.ctx, b.sideKey(side), 0, -1).Result()
	if err != nil {
		b.logger.Error("failed to list side orders",
			zap.String("side", side.String()),
			zap.Error(err))
		return nil
	}

	orders := make([]*core.Order, 0, len(members))
	for _, m := range members {
		if order := b.GetOrder(orderIDFromMember(m)); order != nil {
			orders = append(orders, order)
		}
	}

	return orders
}

// Flush removes every key under this backend's prefix. Test helper.
func (b *RedisBackend) Flush() error {
	b.Lock()
	defer b.Unlock()

	keys, err := b.client.Keys(b.ctx, b.prefix+":*").Result()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	return b.client.Del(b.ctx, keys...).Err()
}

// Ensure RedisBackend implements BookBackend
var _ core.BookBackend = (*RedisBackend)(nil)

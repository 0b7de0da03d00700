package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nikolaydubina/fpdecimal"
	"github.com/rs/zerolog/log"
	"go.uber.org/zap"

	"github.com/tradevine/matchcore/config"
	"github.com/tradevine/matchcore/pkg/backend/memory"
	redisbackend "github.com/tradevine/matchcore/pkg/backend/redis"
	"github.com/tradevine/matchcore/pkg/core"
	"github.com/tradevine/matchcore/pkg/db/queue"
	"github.com/tradevine/matchcore/pkg/logging"
	"github.com/tradevine/matchcore/pkg/messaging"
	msgkafka "github.com/tradevine/matchcore/pkg/messaging/kafka"
	"github.com/tradevine/matchcore/pkg/otel"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogFormat == "pretty",
	})

	logger := log.With().Str("component", "engine").Logger()

	shutdownOtel, err := otel.Init(otel.Config{
		ServiceName:      "matchcore-engine",
		Endpoint:         cfg.Otel.Endpoint,
		CollectorEnabled: cfg.Otel.Enabled,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize telemetry")
	} else {
		defer shutdownOtel()
	}

	backend, err := buildBackend(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build order book backend")
	}

	sender, err := buildSender(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build trade publisher")
	}
	defer sender.Close()

	book := core.NewOrderBook(cfg.Symbol, backend)
	engine := core.NewMatchingEngine(book, sender)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	brokers := strings.Split(cfg.Kafka.Brokers, ",")
	consumer := msgkafka.NewOrderConsumer(brokers, cfg.Kafka.OrdersTopic, cfg.Kafka.GroupID, logger)
	defer consumer.Close()

	logger.Info().
		Str("symbol", cfg.Symbol).
		Str("backend", cfg.Backend).
		Str("orders_topic", cfg.Kafka.OrdersTopic).
		Str("trades_topic", cfg.Kafka.TradesTopic).
		Msg("Matching engine started")

	err = consumer.Run(ctx, func(ctx context.Context, req *messaging.OrderRequest) error {
		order, err := buildOrder(req)
		if err != nil {
			return err
		}

		trades, err := engine.MatchOrder(ctx, order)
		if err != nil {
			return err
		}

		logger.Info().
			Str("order_id", order.ID()).
			Int("trades", len(trades)).
			Msg("Order processed")
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Msg("Consumer stopped with error")
	}

	logger.Info().Msg("Matching engine stopped")
}

func buildBackend(cfg *config.Config) (core.BookBackend, error) {
	if cfg.Backend == config.BackendRedis {
		zapLogger, err := zap.NewProduction()
		if err != nil {
			return nil, err
		}

		redisbackend.SetDefaultRedisOptions(&redisbackend.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		client := redisbackend.GetRedisClient()
		return redisbackend.NewRedisBackend(client, cfg.Symbol, zapLogger), nil
	}

	return memory.NewMemoryBackend(), nil
}

func buildSender(cfg *config.Config) (messaging.MessageSender, error) {
	if cfg.Kafka.Producer == config.ProducerSegment {
		brokers := strings.Split(cfg.Kafka.Brokers, ",")
		return msgkafka.NewKafkaMessageSender(brokers[0], cfg.Kafka.TradesTopic)
	}

	queue.SetBrokerList(cfg.Kafka.Brokers)
	queue.SetTopic(cfg.Kafka.TradesTopic)
	return queue.NewPooledSender(), nil
}

func buildOrder(req *messaging.OrderRequest) (*core.Order, error) {
	side, err := core.SideFromString(req.Side)
	if err != nil {
		return nil, err
	}

	quantity, err := fpdecimal.FromString(req.Quantity)
	if err != nil {
		return nil, core.ErrInvalidQuantity
	}

	price, err := fpdecimal.FromString(req.Price)
	if err != nil {
		return nil, core.ErrInvalidPrice
	}

	return core.NewLimitOrder(req.OrderID, req.Symbol, side, quantity, price)
}

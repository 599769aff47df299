package app

import (
	"go-payroll/internal/config"
	"go-payroll/internal/events"
	"go-payroll/internal/messaging/kafka/consumer"
	"go-payroll/internal/messaging/kafka/producer"
	"go-payroll/internal/messaging/redisbus"
	"go-payroll/internal/shared/connection"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const realtimeGroupPrefix = "payroll-realtime"

// Infra holds the shared connections a binary needs. Publisher and
// Subscriber follow EVENT_BACKEND.
type Infra struct {
	Redis      redis.UniversalClient
	Publisher  events.Publisher
	Subscriber events.Subscriber

	closers []func() error
}

func Connect(cfg *config.Config, logger *zap.Logger) (*Infra, error) {
	rdb, err := connection.ConnectRedisWithRetry(cfg.RedisURL, cfg.RedisMaxRetries)
	if err != nil {
		return nil, err
	}
	infra := &Infra{Redis: rdb, closers: []func() error{rdb.Close}}

	switch cfg.EventBackend {
	case config.EventBackendKafka:
		writer, err := connection.ConnectKafkaWithRetry(cfg.KafkaBroker, cfg.RedisMaxRetries)
		if err != nil {
			infra.Close()
			return nil, err
		}
		infra.closers = append(infra.closers, writer.Close)
		infra.Publisher = producer.NewPublisher(writer, logger)
		infra.Subscriber = consumer.NewSubscriber(consumer.NewReaderFactory(cfg.KafkaBroker, realtimeGroupPrefix), logger)
	default:
		bus := redisbus.New(rdb, logger)
		infra.Publisher = bus
		infra.Subscriber = bus
	}

	logger.Info("infrastructure ready", zap.String("eventBackend", cfg.EventBackend))
	return infra, nil
}

// Close releases connections in reverse order of opening.
func (i *Infra) Close() {
	for n := len(i.closers) - 1; n >= 0; n-- {
		if err := i.closers[n](); err != nil {
			zap.L().Warn("close failed", zap.Error(err))
		}
	}
	i.closers = nil
}

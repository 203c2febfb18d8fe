package bootstrap

import (
	"context"
	"sync"
	"time"

	chclient "hermes/internal/adapters/clickhouse"
	"hermes/internal/adapters/config"
	"hermes/internal/adapters/kafka"
	pgclient "hermes/internal/adapters/postgres"
	redisclient "hermes/internal/adapters/redis"
	"hermes/internal/consumers"
	"hermes/internal/domain/balance"
	"hermes/internal/domain/position"
	"hermes/internal/engine"
	"hermes/internal/events"
	"hermes/internal/metrics"
	chrepo "hermes/internal/repository/clickhouse"
	pgrepo "hermes/internal/repository/postgres"
	"hermes/internal/workers"
	"hermes/pkg/errors"
	"hermes/pkg/logger"
)

// Container holds all application dependencies and their lifecycle.
// Components are organized in initialization order.
type Container struct {
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	// Infrastructure
	PG    *pgclient.Client
	CH    *chclient.Client
	Redis *redisclient.Client
	Kafka *kafka.Producer

	// Repositories
	Positions position.Repository
	Balances  balance.Repository

	// Core
	Engine       *engine.Engine
	TickRecorder *chrepo.TickRecorder

	// Background processing
	Consumer  *consumers.EngineStreamConsumer
	Scheduler *workers.Scheduler
	Metrics   *metrics.Server

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewContainer wires every component. Postgres and Redis are required;
// ClickHouse, Kafka and the metrics server come up only when enabled.
func NewContainer(cfg *config.Config, tracker errors.Tracker) (*Container, error) {
	c := &Container{
		Config:       cfg,
		Log:          logger.Get(),
		ErrorTracker: tracker,
	}

	if err := c.initInfrastructure(); err != nil {
		c.Close()
		return nil, err
	}

	if err := c.initEngine(); err != nil {
		c.Close()
		return nil, err
	}

	c.initBackground()

	return c, nil
}

func (c *Container) initInfrastructure() error {
	pg, err := pgclient.NewClient(c.Config.Postgres)
	if err != nil {
		return errors.Wrap(err, "failed to connect to postgres")
	}
	c.PG = pg

	rdb, err := redisclient.NewClient(c.Config.Redis)
	if err != nil {
		return errors.Wrap(err, "failed to connect to redis")
	}
	c.Redis = rdb

	if c.Config.ClickHouse.Enabled {
		ch, err := chclient.NewClient(c.Config.ClickHouse)
		if err != nil {
			return errors.Wrap(err, "failed to connect to clickhouse")
		}
		c.CH = ch
	}

	if c.Config.Kafka.Enabled {
		c.Kafka = kafka.NewProducer(kafka.ProducerConfig{Brokers: c.Config.Kafka.Brokers})
	}

	return nil
}

func (c *Container) initEngine() error {
	c.Positions = pgrepo.NewPositionRepository(c.PG.DB())
	c.Balances = pgrepo.NewBalanceRepository(c.PG.DB())

	callbacks := events.NewCallbackPublisher(c.Redis, c.Config.Engine.CallbackStream)

	var eventSink engine.EventSink
	if c.Kafka != nil {
		eventSink = events.NewTradePublisher(c.Kafka)
	}

	var ticks engine.TickRecorder
	if c.CH != nil {
		c.TickRecorder = chrepo.NewTickRecorder(c.CH.Conn())
		ticks = c.TickRecorder
	}

	eng, err := engine.New(c.Config.Engine, c.Positions, c.Balances, callbacks, eventSink, ticks)
	if err != nil {
		return err
	}
	c.Engine = eng

	return nil
}

func (c *Container) initBackground() {
	c.Consumer = consumers.NewEngineStreamConsumer(c.Redis, c.Engine, c.Config.Engine)

	c.Scheduler = workers.NewScheduler()
	c.Scheduler.RegisterWorker(workers.NewSnapshotWorker(c.Engine, c.Config.Engine.SnapshotInterval))

	if c.Config.Metrics.Enabled {
		c.Metrics = metrics.NewServer(c.Config.Metrics.Addr)
	}
}

// Start loads durable state and brings every background component up.
func (c *Container) Start(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)

	if err := c.Engine.LoadState(c.ctx); err != nil {
		return errors.Wrap(err, "failed to load engine state")
	}

	if c.Metrics != nil {
		metrics.Register()
		c.Metrics.Start()
	}

	if err := c.Scheduler.Start(c.ctx); err != nil {
		return err
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.Consumer.Start(c.ctx); err != nil {
			c.Log.Errorw("Engine stream consumer exited", "error", err)
		}
	}()

	c.Log.Infow("All components started",
		"command_stream", c.Config.Engine.CommandStream,
		"callback_stream", c.Config.Engine.CallbackStream,
	)
	return nil
}

// Shutdown stops background processing, then closes infrastructure. The
// consumer goroutine is joined before Close so no in-flight batch can touch
// the tick recorder or the repositories after they are torn down.
func (c *Container) Shutdown() {
	if c.cancel != nil {
		c.cancel()
	}

	if c.Scheduler != nil && c.Scheduler.IsRunning() {
		if err := c.Scheduler.Stop(); err != nil {
			c.Log.Warnw("Scheduler shutdown incomplete", "error", err)
		}
	}

	c.wg.Wait()

	if c.Metrics != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Metrics.Shutdown(shutdownCtx); err != nil {
			c.Log.Warnw("Metrics server shutdown incomplete", "error", err)
		}
	}

	c.Close()
}

// Close releases infrastructure connections.
func (c *Container) Close() {
	if c.TickRecorder != nil {
		c.TickRecorder.Close()
		c.TickRecorder = nil
	}
	if c.Kafka != nil {
		_ = c.Kafka.Close()
		c.Kafka = nil
	}
	if c.CH != nil {
		_ = c.CH.Close()
		c.CH = nil
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
		c.Redis = nil
	}
	if c.PG != nil {
		_ = c.PG.Close()
		c.PG = nil
	}
}

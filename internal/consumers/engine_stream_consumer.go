package consumers

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"hermes/internal/adapters/config"
	redisclient "hermes/internal/adapters/redis"
	"hermes/internal/engine"
	"hermes/internal/metrics"
	"hermes/pkg/logger"
)

const dataField = "data"

// EngineStreamConsumer is the single consumer of the ordered command log.
// It reads batches from the stream, dispatches every entry to the engine in
// log order, and advances the durable cursor only after the whole batch has
// been dispatched. Read failures are retried forever: the engine's liveness
// depends on this loop.
type EngineStreamConsumer struct {
	client *redisclient.Client
	eng    *engine.Engine
	cfg    config.EngineConfig

	cursor string
	log    *logger.Logger
}

// NewEngineStreamConsumer creates a consumer over the configured command stream.
func NewEngineStreamConsumer(client *redisclient.Client, eng *engine.Engine, cfg config.EngineConfig) *EngineStreamConsumer {
	return &EngineStreamConsumer{
		client: client,
		eng:    eng,
		cfg:    cfg,
		log:    logger.Get().With("component", "engine_stream_consumer", "stream", cfg.CommandStream),
	}
}

// Start consumes until the context is cancelled. The engine state must be
// loaded before calling Start.
func (c *EngineStreamConsumer) Start(ctx context.Context) error {
	if err := c.loadCursor(ctx); err != nil {
		c.log.Warnw("Failed to load stream cursor, starting from new entries", "error", err)
		c.cursor = "$"
	}

	c.log.Infow("Consuming command stream", "cursor", c.cursor)

	backoff := time.Second
	for {
		if ctx.Err() != nil {
			c.log.Info("Engine stream consumer stopping (context cancelled)")
			return nil
		}

		streams, err := c.client.Client().XRead(ctx, &redis.XReadArgs{
			Streams: []string{c.cfg.CommandStream, c.cursor},
			Count:   c.cfg.ReadCount,
			Block:   c.cfg.ReadBlock,
		}).Result()

		if err == redis.Nil {
			// No new entries within the block window
			backoff = time.Second
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				c.log.Info("Engine stream consumer stopping (context cancelled)")
				return nil
			}
			// Stream connectivity failure is never fatal
			c.log.Errorw("Failed to read command stream, retrying", "error", err, "backoff", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				c.dispatch(ctx, msg)
				c.cursor = msg.ID
			}
		}

		c.persistCursor(ctx)
	}
}

// dispatch decodes one entry and hands it to the engine. Malformed entries
// are logged and skipped so the cursor can move past them.
func (c *EngineStreamConsumer) dispatch(ctx context.Context, msg redis.XMessage) {
	raw, ok := msg.Values[dataField]
	if !ok {
		metrics.MalformedEntries.Inc()
		c.log.Warnw("Skipping entry without data field", "entry_id", msg.ID)
		return
	}

	data, ok := raw.(string)
	if !ok {
		metrics.MalformedEntries.Inc()
		c.log.Warnw("Skipping entry with non-string data field", "entry_id", msg.ID)
		return
	}

	env, err := engine.DecodeEnvelope([]byte(data))
	if err != nil {
		metrics.MalformedEntries.Inc()
		c.log.Warnw("Skipping malformed entry", "entry_id", msg.ID, "error", err)
		return
	}

	c.eng.HandleEnvelope(ctx, env)
}

func (c *EngineStreamConsumer) loadCursor(ctx context.Context) error {
	cursor, err := c.client.GetString(ctx, c.cfg.CursorKey)
	if err != nil {
		return err
	}
	if cursor == "" {
		cursor = "$"
	}
	c.cursor = cursor
	return nil
}

// persistCursor stores the last-consumed entry id. A failed write costs a
// re-read of the batch after a restart; every handler is idempotent, so
// replay is safe.
func (c *EngineStreamConsumer) persistCursor(ctx context.Context) {
	if err := c.client.SetString(ctx, c.cfg.CursorKey, c.cursor); err != nil {
		metrics.DurableWriteFailures.WithLabelValues("cursor").Inc()
		c.log.Errorw("Failed to persist stream cursor", "cursor", c.cursor, "error", err)
	}
}

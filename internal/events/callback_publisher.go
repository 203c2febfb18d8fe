package events

import (
	"context"

	redisclient "hermes/internal/adapters/redis"
	"hermes/internal/engine"
	"hermes/pkg/logger"
)

// Compile-time check
var _ engine.CallbackSink = (*CallbackPublisher)(nil)

// CallbackPublisher appends command outcomes to the callback stream, keyed
// by command id. The request layer blocks on this stream with a bounded
// timeout; callbacks arriving after the waiter gave up are silently dropped
// on its side.
type CallbackPublisher struct {
	client *redisclient.Client
	stream string
	log    *logger.Logger
}

// NewCallbackPublisher creates a publisher for the given callback stream.
func NewCallbackPublisher(client *redisclient.Client, stream string) *CallbackPublisher {
	return &CallbackPublisher{
		client: client,
		stream: stream,
		log:    logger.Get().With("component", "callback_publisher"),
	}
}

// Publish appends one callback entry.
func (p *CallbackPublisher) Publish(ctx context.Context, cb engine.Callback) error {
	values := map[string]interface{}{
		"id":     cb.ID,
		"status": string(cb.Status),
	}
	if cb.Reason != "" {
		values["reason"] = string(cb.Reason)
	}
	if cb.PnL != nil {
		values["pnl"] = cb.PnL.String()
	}

	if err := p.client.Append(ctx, p.stream, values); err != nil {
		return err
	}

	p.log.Debugw("Callback published", "id", cb.ID, "status", cb.Status)
	return nil
}

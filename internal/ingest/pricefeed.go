package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"hermes/internal/adapters/config"
	redisclient "hermes/internal/adapters/redis"
	"hermes/internal/engine"
	"hermes/pkg/errors"
	"hermes/pkg/logger"
)

const (
	handshakeTimeout = 10 * time.Second
	readTimeout      = 30 * time.Second
	writeTimeout     = 5 * time.Second
	pingInterval     = 30 * time.Second
	maxReconnectWait = 30 * time.Second
)

// PriceFeed bridges an exchange book-ticker websocket into the command
// stream. Every forwarded quote becomes a price-update entry, rate limited
// so a bursty feed cannot flood the engine.
type PriceFeed struct {
	cfg     config.PriceFeedConfig
	stream  string
	redis   *redisclient.Client
	limiter *rate.Limiter
	log     *logger.Logger
}

// NewPriceFeed creates the feed bridge.
func NewPriceFeed(cfg config.PriceFeedConfig, stream string, redis *redisclient.Client) *PriceFeed {
	return &PriceFeed{
		cfg:     cfg,
		stream:  stream,
		redis:   redis,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		log:     logger.Get().With("component", "pricefeed", "url", cfg.URL),
	}
}

// Run connects and forwards quotes until the context is cancelled,
// reconnecting with backoff on any failure.
func (f *PriceFeed) Run(ctx context.Context) error {
	backoff := time.Second

	for {
		if ctx.Err() != nil {
			return nil
		}

		err := f.consume(ctx)
		if ctx.Err() != nil {
			return nil
		}

		f.log.Errorw("Price feed connection lost, reconnecting", "error", err, "backoff", backoff)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil
		}
		if backoff < maxReconnectWait {
			backoff *= 2
		}
	}
}

// bookTickerMessage is the exchange's top-of-book update
type bookTickerMessage struct {
	Data struct {
		Symbol string `json:"s"`
		Bid    string `json:"b"`
		Ask    string `json:"a"`
	} `json:"data"`
}

func (f *PriceFeed) consume(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}

	conn, _, err := dialer.DialContext(ctx, f.cfg.URL, nil)
	if err != nil {
		return errors.Wrap(err, "failed to connect to price feed")
	}
	defer conn.Close()

	if err := f.subscribe(conn); err != nil {
		return err
	}

	f.log.Infow("Price feed connected", "symbols", f.cfg.Symbols)

	done := make(chan struct{})
	defer close(done)

	// Drop the connection from a side goroutine when the context dies so
	// the blocked ReadMessage returns.
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	go func() {
		pinger := time.NewTicker(pingInterval)
		defer pinger.Stop()
		for {
			select {
			case <-pinger.C:
				deadline := time.Now().Add(writeTimeout)
				if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return err
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			return errors.Wrap(err, "failed to read price feed message")
		}

		var msg bookTickerMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			f.log.Debugw("Skipping unparseable feed message", "error", err)
			continue
		}
		if msg.Data.Symbol == "" || msg.Data.Bid == "" || msg.Data.Ask == "" {
			continue
		}

		if !f.limiter.Allow() {
			continue
		}

		if err := f.forward(ctx, msg); err != nil {
			f.log.Errorw("Failed to forward price update", "symbol", msg.Data.Symbol, "error", err)
		}
	}
}

func (f *PriceFeed) subscribe(conn *websocket.Conn) error {
	params := make([]string, 0, len(f.cfg.Symbols))
	for _, symbol := range f.cfg.Symbols {
		params = append(params, fmt.Sprintf("bookTicker.%s", symbol))
	}

	sub := map[string]interface{}{
		"method": "SUBSCRIBE",
		"params": params,
	}

	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	if err := conn.WriteJSON(sub); err != nil {
		return errors.Wrap(err, "failed to subscribe to book ticker")
	}

	return nil
}

func (f *PriceFeed) forward(ctx context.Context, msg bookTickerMessage) error {
	payload, err := json.Marshal(map[string]string{
		"s": msg.Data.Symbol,
		"b": msg.Data.Bid,
		"a": msg.Data.Ask,
	})
	if err != nil {
		return err
	}

	data, err := json.Marshal(engine.Envelope{
		Kind:    engine.KindPriceUpdate,
		ID:      uuid.NewString(),
		Payload: payload,
	})
	if err != nil {
		return err
	}

	return f.redis.Append(ctx, f.stream, map[string]interface{}{"data": string(data)})
}

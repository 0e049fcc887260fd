package exchange

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jpillora/backoff"
	"go.uber.org/zap"
)

const (
	binanceStreamURL        = "wss://stream.binance.com:9443/stream"
	binanceTestnetStreamURL = "wss://testnet.binance.vision/stream"
)

// TickerStream subscribes to the public Binance miniTicker websocket streams
// and pushes last prices to registered callbacks. It is an optional, purely
// additive price source: the bot works on REST polling alone, the stream just
// makes the trailing-stop checks tighter between cycles.
type TickerStream struct {
	url       string
	symbols   []string
	logger    *zap.Logger
	callbacks []func(symbol string, price float64)
}

func NewTickerStream(symbols []string, testnet bool, logger *zap.Logger) *TickerStream {
	url := binanceStreamURL
	if testnet {
		url = binanceTestnetStreamURL
	}
	return &TickerStream{url: url, symbols: symbols, logger: logger}
}

// OnPrice registers a callback for every ticker update. Not safe to call
// after Run has started.
func (t *TickerStream) OnPrice(callback func(symbol string, price float64)) {
	t.callbacks = append(t.callbacks, callback)
}

// Run connects and reads until ctx is cancelled, reconnecting with backoff
// on any failure.
func (t *TickerStream) Run(ctx context.Context) {
	b := &backoff.Backoff{
		Min:    time.Second,
		Max:    time.Minute,
		Factor: 2,
		Jitter: true,
	}
	for {
		if err := t.readOnce(ctx); err != nil && ctx.Err() == nil {
			wait := b.Duration()
			t.logger.Warn("ticker stream disconnected, reconnecting",
				zap.Duration("backoff", wait), zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			continue
		}
		if ctx.Err() != nil {
			return
		}
		b.Reset()
	}
}

type combinedStreamMsg struct {
	Stream string `json:"stream"`
	Data   struct {
		Event  string `json:"e"`
		Symbol string `json:"s"`
		Close  string `json:"c"`
	} `json:"data"`
}

func (t *TickerStream) readOnce(ctx context.Context) error {
	streams := make([]string, 0, len(t.symbols))
	for _, s := range t.symbols {
		streams = append(streams, strings.ToLower(s)+"@miniTicker")
	}
	url := t.url + "?streams=" + strings.Join(streams, "/")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	t.logger.Info("ticker stream connected", zap.Strings("symbols", t.symbols))

	// Close the connection when ctx is cancelled so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var msg combinedStreamMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.logger.Warn("unparseable stream message", zap.Error(err))
			continue
		}
		if msg.Data.Symbol == "" {
			continue
		}
		price, err := strconv.ParseFloat(msg.Data.Close, 64)
		if err != nil || price <= 0 {
			continue
		}
		for _, cb := range t.callbacks {
			cb(msg.Data.Symbol, price)
		}
	}
}

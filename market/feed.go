package market

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/gorilla/websocket"

	"fee-engine-go/fixedpoint"
	"fee-engine-go/logs"
)

// Tick is one oracle message: a full snapshot for a pool plus the latest
// trade price.
type Tick struct {
	Pool     string
	Snapshot Snapshot
	Price    fixedpoint.Value
}

// wireTick is the websocket payload. Integer signals travel as decimal
// strings so token-unit magnitudes are not constrained by JSON numbers.
type wireTick struct {
	Pool       string `json:"pool"`
	Volatility string `json:"volatility"`
	Liquidity  string `json:"liquidity"`
	Volume     string `json:"volume"`
	Price      string `json:"price"`
	TsMs       int64  `json:"ts"`
}

// ParseTick decodes a single oracle message.
func ParseTick(raw []byte) (Tick, error) {
	var w wireTick
	if err := json.Unmarshal(raw, &w); err != nil {
		return Tick{}, fmt.Errorf("parse tick: %w", err)
	}
	if w.Pool == "" {
		return Tick{}, fmt.Errorf("parse tick: missing pool")
	}
	vol, ok := sdkmath.NewIntFromString(w.Volatility)
	if !ok {
		return Tick{}, fmt.Errorf("parse tick: invalid volatility %q", w.Volatility)
	}
	liq, ok := sdkmath.NewIntFromString(w.Liquidity)
	if !ok {
		return Tick{}, fmt.Errorf("parse tick: invalid liquidity %q", w.Liquidity)
	}
	volume, ok := sdkmath.NewIntFromString(w.Volume)
	if !ok {
		return Tick{}, fmt.Errorf("parse tick: invalid volume %q", w.Volume)
	}
	price, err := fixedpoint.ParseDecimal(w.Price)
	if err != nil {
		return Tick{}, fmt.Errorf("parse tick: price: %w", err)
	}
	return Tick{
		Pool: w.Pool,
		Snapshot: Snapshot{
			Volatility: vol,
			Liquidity:  liq,
			Volume:     volume,
			AsOf:       time.UnixMilli(w.TsMs),
		},
		Price: price,
	}, nil
}

// Feed maintains a websocket subscription to the oracle stream with bounded
// reconnects and hands every decoded tick to the sink. The sink is invoked
// from the feed goroutine; callers serialize downstream work themselves.
type Feed struct {
	URL          string
	MaxRetries   int
	RetryBackoff time.Duration
	Logger       logs.Logger

	sink         func(Tick)
	onFatalError func(error)

	mu     sync.Mutex
	conn   *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
}

// NewFeed creates a feed for url delivering ticks to sink.
func NewFeed(url string, sink func(Tick)) *Feed {
	return &Feed{
		URL:          url,
		MaxRetries:   5,
		RetryBackoff: 3 * time.Second,
		Logger:       logs.DefaultLogger,
		sink:         sink,
	}
}

// SetFatalErrorHandler installs a callback invoked when the reconnect budget
// is exhausted, so the host can trigger a graceful shutdown.
func (f *Feed) SetFatalErrorHandler(fn func(error)) {
	f.onFatalError = fn
}

// Start begins reading the stream on a background goroutine.
func (f *Feed) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	f.ctx = ctx
	f.cancel = cancel
	go f.run()
}

// Stop closes the connection and stops reconnecting.
func (f *Feed) Stop() {
	if f.cancel != nil {
		f.cancel()
	}
	f.mu.Lock()
	if f.conn != nil {
		_ = f.conn.Close()
		f.conn = nil
	}
	f.mu.Unlock()
}

func (f *Feed) run() {
	retries := 0
	for {
		select {
		case <-f.ctx.Done():
			return
		default:
		}
		conn, _, err := websocket.DefaultDialer.Dial(f.URL, nil)
		if err != nil {
			if retries >= f.MaxRetries {
				fatal := fmt.Errorf("oracle feed reconnection failed after %d retries: %w", f.MaxRetries, err)
				f.Logger.Error("feed giving up", "err", fatal)
				if f.onFatalError != nil {
					f.onFatalError(fatal)
				}
				return
			}
			retries++
			backoff := time.Duration(retries) * f.RetryBackoff
			f.Logger.Warn("feed dial failed", "attempt", retries, "max", f.MaxRetries, "err", err, "backoff", backoff)
			time.Sleep(backoff)
			continue
		}
		f.mu.Lock()
		f.conn = conn
		f.mu.Unlock()
		f.Logger.Info("oracle feed connected", "url", f.URL)
		retries = 0

		f.readLoop(conn)

		f.mu.Lock()
		f.conn = nil
		f.mu.Unlock()
		select {
		case <-f.ctx.Done():
			return
		default:
		}
		f.Logger.Warn("oracle feed disconnected, reconnecting")
		time.Sleep(f.RetryBackoff)
	}
}

func (f *Feed) readLoop(conn *websocket.Conn) {
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	})
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			f.Logger.Warn("feed read error", "err", err)
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		tick, err := ParseTick(msg)
		if err != nil {
			f.Logger.Warn("feed tick dropped", "err", err)
			continue
		}
		if f.sink != nil {
			f.sink(tick)
		}
	}
}

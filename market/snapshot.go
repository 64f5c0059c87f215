// Package market defines the market-data boundary of the fee engine: the
// per-pool snapshot type, the synchronous provider interface and a websocket
// feed that turns oracle ticks into snapshots and price observations.
package market

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// Snapshot is one pool's market reading: volatility in basis points,
// liquidity and traded volume in token units. A snapshot is replaced whole on
// every refresh, never merged field by field.
type Snapshot struct {
	Volatility sdkmath.Int
	Liquidity  sdkmath.Int
	Volume     sdkmath.Int
	AsOf       time.Time
}

// Provider supplies market readings per pool. Implementations are
// synchronous: they either return a value or the enclosing operation fails.
// The engine performs no retries and no staleness validation.
type Provider interface {
	Fetch(poolID string) (Snapshot, error)
}

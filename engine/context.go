package engine

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// TradeContext captures the state a trade was priced against. It is created
// by ComputeFee and consumed exactly once by ApplyPostTradeAdjustment.
type TradeContext struct {
	PoolID             string
	InitialAmount      sdkmath.Int
	InitialCostSignal  sdkmath.Int
	AppliedFee         sdkmath.Int
	Timestamp          time.Time
	VolatilitySnapshot sdkmath.Int
	LiquiditySnapshot  sdkmath.Int
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AnalyticsSnapshot holds scalar performance metrics computed over one
// account's closed trades, in realization (sell time) order. An empty trade
// set yields the zero value, never an error, so dashboards can render
// "no data yet" without special cases.
type AnalyticsSnapshot struct {
	Account       string
	TotalTrades   int
	WinningTrades int
	LosingTrades  int

	TotalNetProfitLoss decimal.Decimal
	GrossProfit        decimal.Decimal
	GrossLoss          decimal.Decimal

	WinRate  float64
	LossRate float64

	// ProfitFactor is gross profit over gross loss. When gross loss is zero
	// and gross profit is positive the ratio is unbounded: ProfitFactorBounded
	// is false and the numeric field stays zero so nothing non-finite is ever
	// persisted or serialized.
	ProfitFactor        float64
	ProfitFactorBounded bool

	AvgProfitPerWin       decimal.Decimal
	AvgLossPerLoss        decimal.Decimal
	AvgProfitLossPerTrade decimal.Decimal

	MaxDrawdown        decimal.Decimal
	AvgDrawdown        decimal.Decimal
	MaxDrawdownPercent float64

	CurrentWinStreak  int
	CurrentLossStreak int
	LongestWinStreak  int
	LongestLossStreak int

	ProfitableDays int
	LossDays       int

	ComputedAt time.Time
}

// DailyPnL is one realization-day bucket of summed profit.
type DailyPnL struct {
	Date   time.Time
	Profit decimal.Decimal
}

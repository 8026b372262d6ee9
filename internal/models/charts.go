package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EquityPoint is one point on the cumulative realized P&L curve. One point
// per closed trade; the same date may repeat.
type EquityPoint struct {
	Date             time.Time
	CumulativeProfit decimal.Decimal
	TradeProfit      decimal.Decimal
}

// DailyPnLPoint is a daily P&L series entry. Sign is -1, 0 or 1.
type DailyPnLPoint struct {
	Date   time.Time
	Profit decimal.Decimal
	Sign   int
}

// WinLossSplit is the two-category winner/loser count for pie rendering.
type WinLossSplit struct {
	Winners int
	Losers  int
}

// HistogramBin is one bin of the profit/loss distribution.
type HistogramBin struct {
	Low   decimal.Decimal
	High  decimal.Decimal
	Count int
}

// BucketPerformance reports performance for one time bucket (hour of day or
// weekday). Buckets with zero trades are omitted from the series.
type BucketPerformance struct {
	Bucket     int
	AvgProfit  decimal.Decimal
	TotalPnL   decimal.Decimal
	TradeCount int
}

// SymbolPerformance reports aggregate performance for one symbol.
type SymbolPerformance struct {
	Symbol      string
	TotalProfit decimal.Decimal
	AvgProfit   decimal.Decimal
	TradeCount  int
}

// ChartBundle holds every chart-ready series derived from one account's
// closed trades.
type ChartBundle struct {
	EquityCurve []EquityPoint
	DailyPnL    []DailyPnLPoint
	WinLoss     WinLossSplit
	Histogram   []HistogramBin

	// HourOfDay buckets 0-23, DayOfWeek buckets 0=Sunday..6=Saturday.
	HourOfDay []BucketPerformance
	DayOfWeek []BucketPerformance

	// TopSymbols is capped for display; Symbols is the uncapped aggregate,
	// both sorted descending by total profit.
	TopSymbols []SymbolPerformance
	Symbols    []SymbolPerformance
}

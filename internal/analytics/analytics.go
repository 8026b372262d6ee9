// Package analytics computes scalar performance metrics over closed trades.
// It is a pure function of its input slice: no I/O, no shared state, safe to
// run concurrently with the chart builder against the same trades.
package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"tradeledger/internal/models"
)

// Aggregate computes an AnalyticsSnapshot from closed trades. Trades are
// ordered by sell time first — the realization order drives every
// running-P&L metric (drawdown, streaks). An empty slice yields an all-zero
// snapshot, never an error.
func Aggregate(trades []models.MatchedTrade) models.AnalyticsSnapshot {
	snap := models.AnalyticsSnapshot{
		TotalNetProfitLoss:    decimal.Zero,
		GrossProfit:           decimal.Zero,
		GrossLoss:             decimal.Zero,
		AvgProfitPerWin:       decimal.Zero,
		AvgLossPerLoss:        decimal.Zero,
		AvgProfitLossPerTrade: decimal.Zero,
		MaxDrawdown:           decimal.Zero,
		AvgDrawdown:           decimal.Zero,
		ComputedAt:            time.Now(),
	}
	if len(trades) == 0 {
		return snap
	}
	snap.Account = trades[0].Account

	ordered := SortByRealization(trades)
	snap.TotalTrades = len(ordered)

	for _, t := range ordered {
		snap.TotalNetProfitLoss = snap.TotalNetProfitLoss.Add(t.Profit)
		switch {
		case t.Profit.IsPositive():
			snap.WinningTrades++
			snap.GrossProfit = snap.GrossProfit.Add(t.Profit)
		case t.Profit.IsNegative():
			snap.LosingTrades++
			snap.GrossLoss = snap.GrossLoss.Add(t.Profit.Neg())
		}
	}

	total := float64(snap.TotalTrades)
	snap.WinRate = float64(snap.WinningTrades) / total * 100
	snap.LossRate = float64(snap.LosingTrades) / total * 100

	// Profit factor: unbounded when there are profits but no losses. The
	// sentinel flag keeps Inf/NaN out of persisted output.
	switch {
	case snap.GrossLoss.IsPositive():
		snap.ProfitFactor, _ = snap.GrossProfit.Div(snap.GrossLoss).Float64()
		snap.ProfitFactorBounded = true
	case snap.GrossProfit.IsPositive():
		snap.ProfitFactorBounded = false
	default:
		snap.ProfitFactorBounded = true
	}

	if snap.WinningTrades > 0 {
		snap.AvgProfitPerWin = snap.GrossProfit.DivRound(decimal.NewFromInt(int64(snap.WinningTrades)), 8)
	}
	if snap.LosingTrades > 0 {
		snap.AvgLossPerLoss = snap.GrossLoss.DivRound(decimal.NewFromInt(int64(snap.LosingTrades)), 8)
	}
	snap.AvgProfitLossPerTrade = snap.TotalNetProfitLoss.DivRound(decimal.NewFromInt(int64(snap.TotalTrades)), 8)

	aggregateDrawdown(ordered, &snap)
	aggregateStreaks(ordered, &snap)
	aggregateDays(ordered, &snap)

	return snap
}

// SortByRealization returns the trades ordered by sell time ascending, ties
// broken by buy time then sell-side origin ID so the order is total. The
// input slice is not modified.
func SortByRealization(trades []models.MatchedTrade) []models.MatchedTrade {
	ordered := make([]models.MatchedTrade, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := &ordered[i], &ordered[j]
		if !a.SellTime.Equal(b.SellTime) {
			return a.SellTime.Before(b.SellTime)
		}
		if !a.BuyTime.Equal(b.BuyTime) {
			return a.BuyTime.Before(b.BuyTime)
		}
		return a.SellOriginID < b.SellOriginID
	})
	return ordered
}

// aggregateDrawdown walks cumulative P&L with a running peak. The peak starts
// at zero, not at the first trade's P&L, so an immediate loss from flat
// already counts as drawdown.
func aggregateDrawdown(ordered []models.MatchedTrade, snap *models.AnalyticsSnapshot) {
	running := decimal.Zero
	peak := decimal.Zero
	peakAtMax := decimal.Zero
	ddSum := decimal.Zero

	for _, t := range ordered {
		running = running.Add(t.Profit)
		if running.GreaterThan(peak) {
			peak = running
		}
		dd := peak.Sub(running)
		ddSum = ddSum.Add(dd)
		if dd.GreaterThan(snap.MaxDrawdown) {
			snap.MaxDrawdown = dd
			peakAtMax = peak
		}
	}

	snap.AvgDrawdown = ddSum.DivRound(decimal.NewFromInt(int64(len(ordered))), 8)
	if peakAtMax.IsPositive() {
		pct, _ := snap.MaxDrawdown.Div(peakAtMax).Float64()
		snap.MaxDrawdownPercent = pct * 100
	}
}

// aggregateStreaks scans chronologically. A breakeven trade resets both
// counters.
func aggregateStreaks(ordered []models.MatchedTrade, snap *models.AnalyticsSnapshot) {
	for _, t := range ordered {
		switch {
		case t.Profit.IsPositive():
			snap.CurrentWinStreak++
			snap.CurrentLossStreak = 0
		case t.Profit.IsNegative():
			snap.CurrentLossStreak++
			snap.CurrentWinStreak = 0
		default:
			snap.CurrentWinStreak = 0
			snap.CurrentLossStreak = 0
		}
		if snap.CurrentWinStreak > snap.LongestWinStreak {
			snap.LongestWinStreak = snap.CurrentWinStreak
		}
		if snap.CurrentLossStreak > snap.LongestLossStreak {
			snap.LongestLossStreak = snap.CurrentLossStreak
		}
	}
}

// aggregateDays buckets trades by the day the round trip realized (the sell
// date) and counts strictly profitable and strictly losing days.
func aggregateDays(ordered []models.MatchedTrade, snap *models.AnalyticsSnapshot) {
	for _, day := range DailyBuckets(ordered) {
		switch {
		case day.Profit.IsPositive():
			snap.ProfitableDays++
		case day.Profit.IsNegative():
			snap.LossDays++
		}
	}
}

// DailyBuckets groups trades by sell date and sums profit per day, sorted by
// date ascending. Shared by the aggregator and the chart builder so both
// report identical daily P&L.
func DailyBuckets(trades []models.MatchedTrade) []models.DailyPnL {
	byDay := make(map[time.Time]decimal.Decimal)
	for _, t := range trades {
		day := dateOf(t.SellTime)
		byDay[day] = byDay[day].Add(t.Profit)
	}

	days := make([]models.DailyPnL, 0, len(byDay))
	for day, pnl := range byDay {
		days = append(days, models.DailyPnL{Date: day, Profit: pnl})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

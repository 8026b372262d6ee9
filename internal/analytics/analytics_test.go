package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tradeledger/internal/models"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// tradeAt builds a closed trade realized at the given time with the given
// net profit. The price legs are synthetic; only Profit and the timestamps
// matter to the aggregator.
func tradeAt(sellTime time.Time, profit string) models.MatchedTrade {
	return models.MatchedTrade{
		Account:  "default",
		Symbol:   "AAPL",
		Quantity: 1,
		BuyTime:  sellTime.Add(-time.Hour),
		SellTime: sellTime,
		Profit:   dec(profit),
	}
}

func day(d int, hour int) time.Time {
	return time.Date(2024, 5, d, hour, 0, 0, 0, time.UTC)
}

func TestAggregateEmptyInput(t *testing.T) {
	snap := Aggregate(nil)
	if snap.TotalTrades != 0 || snap.WinningTrades != 0 || snap.LosingTrades != 0 {
		t.Errorf("Empty input should produce zero counts: %+v", snap)
	}
	if !snap.TotalNetProfitLoss.IsZero() || !snap.MaxDrawdown.IsZero() {
		t.Errorf("Empty input should produce zero money fields: %+v", snap)
	}
	if snap.WinRate != 0 || snap.ProfitFactor != 0 {
		t.Errorf("Empty input should produce zero rates: %+v", snap)
	}
	if snap.ComputedAt.IsZero() {
		t.Errorf("ComputedAt should be stamped even for empty input")
	}
}

func TestAggregateCounts(t *testing.T) {
	trades := []models.MatchedTrade{
		tradeAt(day(1, 10), "100"),
		tradeAt(day(1, 11), "-40"),
		tradeAt(day(2, 10), "0"),
		tradeAt(day(2, 11), "60"),
	}
	snap := Aggregate(trades)

	if snap.TotalTrades != 4 || snap.WinningTrades != 2 || snap.LosingTrades != 1 {
		t.Errorf("Counts mismatch: %+v", snap)
	}
	if snap.WinRate != 50 || snap.LossRate != 25 {
		t.Errorf("Rates mismatch: win=%v loss=%v", snap.WinRate, snap.LossRate)
	}
	if !snap.TotalNetProfitLoss.Equal(dec("120")) {
		t.Errorf("Net P&L: expected 120, got %s", snap.TotalNetProfitLoss)
	}
	if !snap.GrossProfit.Equal(dec("160")) || !snap.GrossLoss.Equal(dec("40")) {
		t.Errorf("Gross figures mismatch: profit=%s loss=%s", snap.GrossProfit, snap.GrossLoss)
	}
	if !snap.ProfitFactorBounded || snap.ProfitFactor != 4 {
		t.Errorf("Profit factor: expected bounded 4, got %v (bounded=%v)", snap.ProfitFactor, snap.ProfitFactorBounded)
	}
	if !snap.AvgProfitPerWin.Equal(dec("80")) || !snap.AvgLossPerLoss.Equal(dec("40")) {
		t.Errorf("Averages mismatch: win=%s loss=%s", snap.AvgProfitPerWin, snap.AvgLossPerLoss)
	}
	if !snap.AvgProfitLossPerTrade.Equal(dec("30")) {
		t.Errorf("Avg per trade: expected 30, got %s", snap.AvgProfitLossPerTrade)
	}
}

// Profit factor has no meaningful value when every trade wins; the flag marks
// it unbounded instead of persisting an infinity.
func TestAggregateProfitFactorUnbounded(t *testing.T) {
	snap := Aggregate([]models.MatchedTrade{
		tradeAt(day(1, 10), "50"),
		tradeAt(day(1, 11), "25"),
	})
	if snap.ProfitFactorBounded {
		t.Errorf("Profit factor should be unbounded with no losses")
	}
	if snap.ProfitFactor != 0 {
		t.Errorf("Unbounded profit factor should report numeric zero, got %v", snap.ProfitFactor)
	}

	// All breakeven: zero over zero is bounded zero, not unbounded.
	flat := Aggregate([]models.MatchedTrade{tradeAt(day(1, 10), "0")})
	if !flat.ProfitFactorBounded || flat.ProfitFactor != 0 {
		t.Errorf("Breakeven-only profit factor should be bounded zero: %v (bounded=%v)", flat.ProfitFactor, flat.ProfitFactorBounded)
	}
}

func TestAggregateDrawdown(t *testing.T) {
	// Running P&L: 100, -50, 0. Peak stays at 100, so the deepest trough is
	// 150 below it.
	snap := Aggregate([]models.MatchedTrade{
		tradeAt(day(1, 10), "100"),
		tradeAt(day(1, 11), "-150"),
		tradeAt(day(1, 12), "50"),
	})
	if !snap.MaxDrawdown.Equal(dec("150")) {
		t.Errorf("Max drawdown: expected 150, got %s", snap.MaxDrawdown)
	}
	if snap.MaxDrawdownPercent != 150 {
		t.Errorf("Max drawdown percent: expected 150, got %v", snap.MaxDrawdownPercent)
	}
	// Drawdowns per step: 0, 150, 100.
	want := dec("250").DivRound(dec("3"), 8)
	if !snap.AvgDrawdown.Equal(want) {
		t.Errorf("Avg drawdown: expected %s, got %s", want, snap.AvgDrawdown)
	}
}

// A loss as the very first trade is already a drawdown from the flat start.
func TestAggregateDrawdownImmediateLoss(t *testing.T) {
	snap := Aggregate([]models.MatchedTrade{
		tradeAt(day(1, 10), "-80"),
	})
	if !snap.MaxDrawdown.Equal(dec("80")) {
		t.Errorf("Max drawdown: expected 80, got %s", snap.MaxDrawdown)
	}
	// No positive peak, so the percentage stays zero.
	if snap.MaxDrawdownPercent != 0 {
		t.Errorf("Max drawdown percent without a peak: expected 0, got %v", snap.MaxDrawdownPercent)
	}
}

func TestAggregateStreaks(t *testing.T) {
	snap := Aggregate([]models.MatchedTrade{
		tradeAt(day(1, 10), "10"),
		tradeAt(day(1, 11), "10"),
		tradeAt(day(1, 12), "-5"),
		tradeAt(day(1, 13), "-5"),
		tradeAt(day(1, 14), "-5"),
		tradeAt(day(1, 15), "20"),
	})
	if snap.LongestWinStreak != 2 || snap.LongestLossStreak != 3 {
		t.Errorf("Longest streaks: expected 2/3, got %d/%d", snap.LongestWinStreak, snap.LongestLossStreak)
	}
	if snap.CurrentWinStreak != 1 || snap.CurrentLossStreak != 0 {
		t.Errorf("Current streaks: expected 1/0, got %d/%d", snap.CurrentWinStreak, snap.CurrentLossStreak)
	}
}

func TestAggregateStreaksBreakevenResets(t *testing.T) {
	snap := Aggregate([]models.MatchedTrade{
		tradeAt(day(1, 10), "10"),
		tradeAt(day(1, 11), "0"),
		tradeAt(day(1, 12), "10"),
	})
	if snap.LongestWinStreak != 1 {
		t.Errorf("Breakeven should reset the win streak: got %d", snap.LongestWinStreak)
	}
	if snap.CurrentWinStreak != 1 || snap.CurrentLossStreak != 0 {
		t.Errorf("Current streaks after breakeven: got %d/%d", snap.CurrentWinStreak, snap.CurrentLossStreak)
	}
}

func TestAggregateDays(t *testing.T) {
	snap := Aggregate([]models.MatchedTrade{
		tradeAt(day(1, 10), "100"),
		tradeAt(day(1, 15), "-30"), // day 1 nets +70
		tradeAt(day(2, 10), "-10"), // day 2 nets -10
		tradeAt(day(3, 10), "5"),
		tradeAt(day(3, 11), "-5"), // day 3 nets 0, counted in neither bucket
	})
	if snap.ProfitableDays != 1 || snap.LossDays != 1 {
		t.Errorf("Day counts: expected 1 profitable / 1 losing, got %d/%d", snap.ProfitableDays, snap.LossDays)
	}
}

// Metrics driven by running P&L must follow realization order, not input
// order.
func TestAggregateRealizationOrder(t *testing.T) {
	trades := []models.MatchedTrade{
		tradeAt(day(2, 10), "-150"),
		tradeAt(day(1, 10), "100"),
	}
	snap := Aggregate(trades)
	// Sorted order is +100 then -150, so the drawdown is 150, not 50.
	if !snap.MaxDrawdown.Equal(dec("150")) {
		t.Errorf("Max drawdown should use realization order: expected 150, got %s", snap.MaxDrawdown)
	}
}

func TestSortByRealizationDoesNotMutateInput(t *testing.T) {
	trades := []models.MatchedTrade{
		tradeAt(day(2, 10), "1"),
		tradeAt(day(1, 10), "2"),
	}
	_ = SortByRealization(trades)
	if !trades[0].SellTime.Equal(day(2, 10)) {
		t.Errorf("SortByRealization mutated its input")
	}
}

func TestDailyBuckets(t *testing.T) {
	days := DailyBuckets([]models.MatchedTrade{
		tradeAt(day(3, 10), "5"),
		tradeAt(day(1, 10), "10"),
		tradeAt(day(1, 14), "-4"),
	})
	if len(days) != 2 {
		t.Fatalf("Expected 2 daily buckets, got %d", len(days))
	}
	if !days[0].Date.Equal(day(1, 0)) || !days[0].Profit.Equal(dec("6")) {
		t.Errorf("First bucket mismatch: %+v", days[0])
	}
	if !days[1].Date.Equal(day(3, 0)) || !days[1].Profit.Equal(dec("5")) {
		t.Errorf("Second bucket mismatch: %+v", days[1])
	}
}

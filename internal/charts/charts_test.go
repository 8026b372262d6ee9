package charts

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

func trade(symbol string, sellTime time.Time, profit string) models.MatchedTrade {
	return models.MatchedTrade{
		Account:  "default",
		Symbol:   symbol,
		Quantity: 1,
		BuyTime:  sellTime.Add(-time.Hour),
		SellTime: sellTime,
		Profit:   dec(profit),
	}
}

func at(d, hour int) time.Time {
	return time.Date(2024, 6, d, hour, 30, 0, 0, time.UTC)
}

func TestBuildEmptyInput(t *testing.T) {
	bundle := Build(nil, Options{})
	if len(bundle.EquityCurve) != 0 || len(bundle.DailyPnL) != 0 || len(bundle.Histogram) != 0 {
		t.Errorf("Empty input should produce empty series: %+v", bundle)
	}
	if bundle.WinLoss.Winners != 0 || bundle.WinLoss.Losers != 0 {
		t.Errorf("Empty input should produce a zero win/loss split")
	}
}

func TestBuildEquityCurve(t *testing.T) {
	bundle := Build([]models.MatchedTrade{
		trade("AAPL", at(2, 10), "-20"),
		trade("AAPL", at(1, 10), "50"),
	}, Options{})

	if len(bundle.EquityCurve) != 2 {
		t.Fatalf("Expected 2 equity points, got %d", len(bundle.EquityCurve))
	}
	// Points follow realization order regardless of input order.
	if !bundle.EquityCurve[0].CumulativeProfit.Equal(dec("50")) {
		t.Errorf("First cumulative: expected 50, got %s", bundle.EquityCurve[0].CumulativeProfit)
	}
	if !bundle.EquityCurve[1].CumulativeProfit.Equal(dec("30")) {
		t.Errorf("Second cumulative: expected 30, got %s", bundle.EquityCurve[1].CumulativeProfit)
	}
	if !bundle.EquityCurve[1].TradeProfit.Equal(dec("-20")) {
		t.Errorf("Second trade profit: expected -20, got %s", bundle.EquityCurve[1].TradeProfit)
	}
}

func TestBuildDailySeriesSigns(t *testing.T) {
	bundle := Build([]models.MatchedTrade{
		trade("AAPL", at(1, 10), "30"),
		trade("AAPL", at(2, 10), "-10"),
		trade("AAPL", at(3, 10), "5"),
		trade("AAPL", at(3, 11), "-5"),
	}, Options{})

	if len(bundle.DailyPnL) != 3 {
		t.Fatalf("Expected 3 daily points, got %d", len(bundle.DailyPnL))
	}
	signs := []int{bundle.DailyPnL[0].Sign, bundle.DailyPnL[1].Sign, bundle.DailyPnL[2].Sign}
	if signs[0] != 1 || signs[1] != -1 || signs[2] != 0 {
		t.Errorf("Daily signs mismatch: %v", signs)
	}
}

// A profit exactly on the top edge belongs to the last bin, not a phantom
// bin past the end.
func TestHistogramTopEdge(t *testing.T) {
	bundle := Build([]models.MatchedTrade{
		trade("AAPL", at(1, 10), "0"),
		trade("AAPL", at(1, 11), "10"),
	}, Options{HistogramBins: 2})

	if len(bundle.Histogram) != 2 {
		t.Fatalf("Expected 2 bins, got %d", len(bundle.Histogram))
	}
	if bundle.Histogram[0].Count != 1 || bundle.Histogram[1].Count != 1 {
		t.Errorf("Bin counts mismatch: %+v", bundle.Histogram)
	}
	if !bundle.Histogram[0].Low.Equal(dec("0")) || !bundle.Histogram[1].High.Equal(dec("10")) {
		t.Errorf("Bin edges mismatch: %+v", bundle.Histogram)
	}
}

// When every trade has the same profit the span is zero and everything lands
// in bin 0.
func TestHistogramIdenticalProfits(t *testing.T) {
	bundle := Build([]models.MatchedTrade{
		trade("AAPL", at(1, 10), "7"),
		trade("AAPL", at(1, 11), "7"),
		trade("AAPL", at(1, 12), "7"),
	}, Options{HistogramBins: 4})

	if bundle.Histogram[0].Count != 3 {
		t.Errorf("Identical profits should fill bin 0: %+v", bundle.Histogram)
	}
	for _, bin := range bundle.Histogram[1:] {
		if bin.Count != 0 {
			t.Errorf("Unexpected count in bin %+v", bin)
		}
	}
}

func TestHistogramCountsTotal(t *testing.T) {
	trades := []models.MatchedTrade{
		trade("AAPL", at(1, 10), "-33.5"),
		trade("AAPL", at(1, 11), "12"),
		trade("AAPL", at(1, 12), "0.01"),
		trade("AAPL", at(1, 13), "99.99"),
		trade("AAPL", at(1, 14), "-0.5"),
	}
	bundle := Build(trades, Options{HistogramBins: 3})

	total := 0
	for _, bin := range bundle.Histogram {
		total += bin.Count
	}
	if total != len(trades) {
		t.Errorf("Histogram counts should sum to %d, got %d", len(trades), total)
	}
}

// Hour and weekday buckets with no trades are omitted entirely.
func TestBucketSeriesOmitsEmpty(t *testing.T) {
	bundle := Build([]models.MatchedTrade{
		trade("AAPL", at(3, 10), "10"), // Monday
		trade("AAPL", at(3, 10), "20"),
		trade("AAPL", at(4, 15), "-5"), // Tuesday
	}, Options{})

	if len(bundle.HourOfDay) != 2 {
		t.Fatalf("Expected 2 hour buckets, got %d", len(bundle.HourOfDay))
	}
	ten := bundle.HourOfDay[0]
	if ten.Bucket != 10 || ten.TradeCount != 2 || !ten.TotalPnL.Equal(dec("30")) {
		t.Errorf("Hour bucket 10 mismatch: %+v", ten)
	}
	if !ten.AvgProfit.Equal(dec("15")) {
		t.Errorf("Hour bucket 10 average: expected 15, got %s", ten.AvgProfit)
	}

	if len(bundle.DayOfWeek) != 2 {
		t.Fatalf("Expected 2 weekday buckets, got %d", len(bundle.DayOfWeek))
	}
	if bundle.DayOfWeek[0].Bucket != int(time.Monday) || bundle.DayOfWeek[1].Bucket != int(time.Tuesday) {
		t.Errorf("Weekday buckets mismatch: %+v", bundle.DayOfWeek)
	}
}

func TestSymbolRanking(t *testing.T) {
	bundle := Build([]models.MatchedTrade{
		trade("AAPL", at(1, 10), "10"),
		trade("TSLA", at(1, 11), "50"),
		trade("AAPL", at(1, 12), "15"),
		trade("INFY", at(1, 13), "25"),
	}, Options{TopSymbols: 2})

	if len(bundle.Symbols) != 3 {
		t.Fatalf("Expected 3 ranked symbols, got %d", len(bundle.Symbols))
	}
	if bundle.Symbols[0].Symbol != "TSLA" || bundle.Symbols[1].Symbol != "AAPL" || bundle.Symbols[2].Symbol != "INFY" {
		t.Errorf("Ranking order mismatch: %+v", bundle.Symbols)
	}
	if bundle.Symbols[1].TradeCount != 2 || !bundle.Symbols[1].TotalProfit.Equal(dec("25")) {
		t.Errorf("AAPL aggregation mismatch: %+v", bundle.Symbols[1])
	}

	if len(bundle.TopSymbols) != 2 {
		t.Fatalf("TopSymbols should be capped at 2, got %d", len(bundle.TopSymbols))
	}
	if bundle.TopSymbols[0].Symbol != "TSLA" || bundle.TopSymbols[1].Symbol != "AAPL" {
		t.Errorf("TopSymbols mismatch: %+v", bundle.TopSymbols)
	}
}

func TestSymbolRankingTies(t *testing.T) {
	bundle := Build([]models.MatchedTrade{
		trade("ZEE", at(1, 10), "10"),
		trade("ABB", at(1, 11), "10"),
	}, Options{})
	if bundle.Symbols[0].Symbol != "ABB" || bundle.Symbols[1].Symbol != "ZEE" {
		t.Errorf("Equal totals should rank by symbol: %+v", bundle.Symbols)
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}.withDefaults()
	if opts.HistogramBins != DefaultHistogramBins || opts.TopSymbols != DefaultTopSymbols {
		t.Errorf("Zero options should select defaults: %+v", opts)
	}
	kept := Options{HistogramBins: 5, TopSymbols: 3}.withDefaults()
	if kept.HistogramBins != 5 || kept.TopSymbols != 3 {
		t.Errorf("Explicit options should be kept: %+v", kept)
	}
}

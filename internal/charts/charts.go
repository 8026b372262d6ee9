// Package charts derives chart-ready series from closed trades: equity
// curve, daily P&L, win/loss split, profit histogram, time-of-day and
// weekday seasonality and per-symbol ranking. Like the analytics package it
// is a pure function of its input and may run concurrently with it.
package charts

import (
	"sort"

	"github.com/shopspring/decimal"

	"tradeledger/internal/analytics"
	"tradeledger/internal/models"
)

// Defaults for the tunable series sizes.
const (
	DefaultHistogramBins = 10
	DefaultTopSymbols    = 10
)

// Options controls histogram granularity and the symbol ranking cap. The
// zero value selects the defaults.
type Options struct {
	HistogramBins int
	TopSymbols    int
}

func (o Options) withDefaults() Options {
	if o.HistogramBins <= 0 {
		o.HistogramBins = DefaultHistogramBins
	}
	if o.TopSymbols <= 0 {
		o.TopSymbols = DefaultTopSymbols
	}
	return o
}

// Build produces every chart series for the given closed trades. Empty input
// yields empty series, never an error.
func Build(trades []models.MatchedTrade, opts Options) models.ChartBundle {
	opts = opts.withDefaults()

	var bundle models.ChartBundle
	if len(trades) == 0 {
		return bundle
	}

	ordered := analytics.SortByRealization(trades)
	bundle.EquityCurve = equityCurve(ordered)
	bundle.DailyPnL = dailySeries(ordered)
	bundle.WinLoss = winLossSplit(ordered)
	bundle.Histogram = histogram(ordered, opts.HistogramBins)
	bundle.HourOfDay = bucketSeries(ordered, func(t models.MatchedTrade) int { return t.SellTime.Hour() })
	bundle.DayOfWeek = bucketSeries(ordered, func(t models.MatchedTrade) int { return int(t.SellTime.Weekday()) })
	bundle.Symbols = symbolRanking(ordered)
	bundle.TopSymbols = bundle.Symbols
	if len(bundle.TopSymbols) > opts.TopSymbols {
		bundle.TopSymbols = bundle.TopSymbols[:opts.TopSymbols]
	}
	return bundle
}

// equityCurve emits one point per trade in realization order; the same date
// may repeat.
func equityCurve(ordered []models.MatchedTrade) []models.EquityPoint {
	points := make([]models.EquityPoint, 0, len(ordered))
	cumulative := decimal.Zero
	for _, t := range ordered {
		cumulative = cumulative.Add(t.Profit)
		points = append(points, models.EquityPoint{
			Date:             t.SellTime,
			CumulativeProfit: cumulative,
			TradeProfit:      t.Profit,
		})
	}
	return points
}

func dailySeries(ordered []models.MatchedTrade) []models.DailyPnLPoint {
	days := analytics.DailyBuckets(ordered)
	series := make([]models.DailyPnLPoint, 0, len(days))
	for _, day := range days {
		series = append(series, models.DailyPnLPoint{
			Date:   day.Date,
			Profit: day.Profit,
			Sign:   day.Profit.Sign(),
		})
	}
	return series
}

func winLossSplit(ordered []models.MatchedTrade) models.WinLossSplit {
	var split models.WinLossSplit
	for _, t := range ordered {
		switch {
		case t.Profit.IsPositive():
			split.Winners++
		case t.Profit.IsNegative():
			split.Losers++
		}
	}
	return split
}

// histogram bins trade profits into binCount equal-width bins over
// [min, max]. A value landing exactly on the top edge belongs to the last
// bin. When every profit is identical the single shared value fills bin 0.
func histogram(ordered []models.MatchedTrade, binCount int) []models.HistogramBin {
	min, max := ordered[0].Profit, ordered[0].Profit
	for _, t := range ordered[1:] {
		if t.Profit.LessThan(min) {
			min = t.Profit
		}
		if t.Profit.GreaterThan(max) {
			max = t.Profit
		}
	}

	span := max.Sub(min)
	width := span.Div(decimal.NewFromInt(int64(binCount)))

	bins := make([]models.HistogramBin, binCount)
	for i := range bins {
		idx := decimal.NewFromInt(int64(i))
		bins[i].Low = min.Add(width.Mul(idx))
		bins[i].High = min.Add(width.Mul(idx.Add(decimal.NewFromInt(1))))
	}
	bins[binCount-1].High = max

	for _, t := range ordered {
		idx := 0
		if span.IsPositive() {
			idx = int(t.Profit.Sub(min).Div(width).IntPart())
			if idx >= binCount {
				idx = binCount - 1
			}
		}
		bins[idx].Count++
	}
	return bins
}

// bucketSeries groups trades by an integer bucket of the realization
// timestamp (hour 0-23 or weekday 0=Sunday..6=Saturday). Buckets with no
// trades are omitted: an average over an empty bucket is undefined.
func bucketSeries(ordered []models.MatchedTrade, bucketOf func(models.MatchedTrade) int) []models.BucketPerformance {
	totals := make(map[int]*models.BucketPerformance)
	for _, t := range ordered {
		b := bucketOf(t)
		perf := totals[b]
		if perf == nil {
			perf = &models.BucketPerformance{Bucket: b, TotalPnL: decimal.Zero}
			totals[b] = perf
		}
		perf.TotalPnL = perf.TotalPnL.Add(t.Profit)
		perf.TradeCount++
	}

	series := make([]models.BucketPerformance, 0, len(totals))
	for _, perf := range totals {
		perf.AvgProfit = perf.TotalPnL.DivRound(decimal.NewFromInt(int64(perf.TradeCount)), 8)
		series = append(series, *perf)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Bucket < series[j].Bucket })
	return series
}

// symbolRanking aggregates per-symbol totals sorted descending by total
// profit, symbol ascending on ties.
func symbolRanking(ordered []models.MatchedTrade) []models.SymbolPerformance {
	bySymbol := make(map[string]*models.SymbolPerformance)
	for _, t := range ordered {
		perf := bySymbol[t.Symbol]
		if perf == nil {
			perf = &models.SymbolPerformance{Symbol: t.Symbol, TotalProfit: decimal.Zero}
			bySymbol[t.Symbol] = perf
		}
		perf.TotalProfit = perf.TotalProfit.Add(t.Profit)
		perf.TradeCount++
	}

	ranking := make([]models.SymbolPerformance, 0, len(bySymbol))
	for _, perf := range bySymbol {
		perf.AvgProfit = perf.TotalProfit.DivRound(decimal.NewFromInt(int64(perf.TradeCount)), 8)
		ranking = append(ranking, *perf)
	}
	sort.Slice(ranking, func(i, j int) bool {
		if !ranking[i].TotalProfit.Equal(ranking[j].TotalProfit) {
			return ranking[i].TotalProfit.GreaterThan(ranking[j].TotalProfit)
		}
		return ranking[i].Symbol < ranking[j].Symbol
	})
	return ranking
}

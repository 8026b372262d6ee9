// Package engine orchestrates a full ledger run: load executions, match,
// derive analytics and charts, and persist the output atomically. The engine
// holds no per-run state, so runs for different accounts are independent and
// one account's run is safely re-runnable after a persistence failure.
package engine

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"tradeledger/internal/analytics"
	"tradeledger/internal/charts"
	"tradeledger/internal/errors"
	"tradeledger/internal/matching"
	"tradeledger/internal/models"
	"tradeledger/internal/store"
)

// Engine wires the matcher, aggregator and chart builder to a data store.
type Engine struct {
	store     store.DataStore
	logger    zerolog.Logger
	chartOpts charts.Options
}

// New creates an engine backed by the given store.
func New(dataStore store.DataStore, logger zerolog.Logger, chartOpts charts.Options) *Engine {
	return &Engine{
		store:     dataStore,
		logger:    logger,
		chartOpts: chartOpts,
	}
}

// RunReport summarizes one recompute run.
type RunReport struct {
	Account   string
	Trades    int
	Open      int
	Skipped   []matching.SkippedExecution
	NetProfit decimal.Decimal
	Snapshot  models.AnalyticsSnapshot
	Charts    models.ChartBundle
}

// Recompute reprocesses the account's full execution set: match everything
// from scratch, then atomically replace the previous run's matched trades
// and open positions so nothing is double counted across re-runs.
func (e *Engine) Recompute(ctx context.Context, account string) (*RunReport, error) {
	if account == "" {
		return nil, errors.ErrAccountRequired
	}
	log := e.logger.With().Str("account", account).Logger()

	execs, err := e.store.GetExecutions(ctx, account)
	if err != nil {
		return nil, errors.Wrap(err, "loading executions")
	}

	result, err := matching.Match(execs)
	if err != nil {
		log.Error().Err(err).Msg("Matching aborted")
		return nil, err
	}
	for _, skipped := range result.Skipped {
		log.Warn().
			Str("external_id", skipped.Execution.ExternalID).
			Str("reason", skipped.Reason).
			Msg("Execution skipped")
	}

	snap, bundle := e.derive(account, result.Trades)

	if err := e.store.ReplaceResults(ctx, account, result.Trades, result.Open); err != nil {
		return nil, errors.Wrap(err, "persisting run output")
	}
	if err := e.store.SaveSnapshot(ctx, &snap); err != nil {
		return nil, errors.Wrap(err, "persisting snapshot")
	}

	log.Info().
		Int("executions", len(execs)).
		Int("trades", len(result.Trades)).
		Int("open_positions", len(result.Open)).
		Int("skipped", len(result.Skipped)).
		Str("net_profit", result.NetProfit.String()).
		Msg("Recompute completed")

	return &RunReport{
		Account:   account,
		Trades:    len(result.Trades),
		Open:      len(result.Open),
		Skipped:   result.Skipped,
		NetProfit: result.NetProfit,
		Snapshot:  snap,
		Charts:    bundle,
	}, nil
}

// Update runs an incremental pass: the account's stored open positions are
// seeded into the lot pool ahead of the new executions, newly closed trades
// are appended and the open position set is replaced. The snapshot is then
// rebuilt over the full trade history.
func (e *Engine) Update(ctx context.Context, account string, execs []models.RawExecution) (*RunReport, error) {
	if account == "" {
		return nil, errors.ErrAccountRequired
	}
	log := e.logger.With().Str("account", account).Logger()

	carried, err := e.store.GetOpenPositions(ctx, account)
	if err != nil {
		return nil, errors.Wrap(err, "loading open positions")
	}

	result, err := matching.MatchIncremental(execs, carried)
	if err != nil {
		log.Error().Err(err).Msg("Matching aborted")
		return nil, err
	}

	if err := e.store.AppendResults(ctx, account, result.Trades, result.Open); err != nil {
		return nil, errors.Wrap(err, "persisting run output")
	}

	allTrades, err := e.store.GetTrades(ctx, store.TradeFilter{Account: account})
	if err != nil {
		return nil, errors.Wrap(err, "loading trade history")
	}
	snap, bundle := e.derive(account, allTrades)
	if err := e.store.SaveSnapshot(ctx, &snap); err != nil {
		return nil, errors.Wrap(err, "persisting snapshot")
	}

	log.Info().
		Int("executions", len(execs)).
		Int("carried_positions", len(carried)).
		Int("new_trades", len(result.Trades)).
		Int("open_positions", len(result.Open)).
		Msg("Incremental update completed")

	return &RunReport{
		Account:   account,
		Trades:    len(result.Trades),
		Open:      len(result.Open),
		Skipped:   result.Skipped,
		NetProfit: result.NetProfit,
		Snapshot:  snap,
		Charts:    bundle,
	}, nil
}

// derive runs the aggregator and the chart builder concurrently; both only
// read the immutable trade slice.
func (e *Engine) derive(account string, trades []models.MatchedTrade) (models.AnalyticsSnapshot, models.ChartBundle) {
	var (
		wg     sync.WaitGroup
		snap   models.AnalyticsSnapshot
		bundle models.ChartBundle
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		snap = analytics.Aggregate(trades)
	}()
	go func() {
		defer wg.Done()
		bundle = charts.Build(trades, e.chartOpts)
	}()
	wg.Wait()

	snap.Account = account
	return snap, bundle
}

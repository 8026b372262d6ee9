// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"tradeledger/internal/models"
)

// DataStore defines the interface for trade ledger persistence.
type DataStore interface {
	// Executions. SaveExecutions is idempotent on (account, external id):
	// re-importing the same file inserts nothing and reports duplicates.
	SaveExecutions(ctx context.Context, execs []models.RawExecution) (inserted, duplicates int, err error)
	GetExecutions(ctx context.Context, account string) ([]models.RawExecution, error)

	// Run output. ReplaceResults atomically swaps an account's matched
	// trades and open positions for a full recompute; AppendResults keeps
	// prior trades and only replaces open positions, for incremental runs.
	// Both are all-or-nothing: readers never observe a partial run.
	ReplaceResults(ctx context.Context, account string, trades []models.MatchedTrade, open []models.OpenPosition) error
	AppendResults(ctx context.Context, account string, trades []models.MatchedTrade, open []models.OpenPosition) error
	GetTrades(ctx context.Context, filter TradeFilter) ([]models.MatchedTrade, error)
	GetOpenPositions(ctx context.Context, account string) ([]models.OpenPosition, error)

	// Analytics snapshots, one per account, overwritten on every run.
	SaveSnapshot(ctx context.Context, snap *models.AnalyticsSnapshot) error
	GetSnapshot(ctx context.Context, account string) (*models.AnalyticsSnapshot, error)

	// Lifecycle
	Close() error
}

// TradeFilter represents filters for querying matched trades.
type TradeFilter struct {
	Account   string
	Symbol    string
	StartDate time.Time
	EndDate   time.Time
	Limit     int
}

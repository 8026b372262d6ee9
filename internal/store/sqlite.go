// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"tradeledger/internal/models"
)

// SQLiteStore implements DataStore using SQLite. Decimal values are stored
// as text to keep them exact.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Raw executions as imported, immutable. The (account, external_id)
	-- uniqueness makes re-imports idempotent.
	CREATE TABLE IF NOT EXISTS executions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account TEXT NOT NULL,
		external_id TEXT NOT NULL,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		price TEXT NOT NULL,
		commission TEXT NOT NULL,
		executed_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(account, external_id)
	);

	-- Closed round trips produced by a matching run.
	CREATE TABLE IF NOT EXISTS matched_trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account TEXT NOT NULL,
		symbol TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		buy_price TEXT NOT NULL,
		sell_price TEXT NOT NULL,
		buy_time DATETIME NOT NULL,
		sell_time DATETIME NOT NULL,
		profit TEXT NOT NULL,
		commission TEXT NOT NULL,
		buy_origin_id TEXT NOT NULL,
		sell_origin_id TEXT NOT NULL,
		hold_duration INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Residual unmatched quantity carried forward.
	CREATE TABLE IF NOT EXISTS open_positions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account TEXT NOT NULL,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		price TEXT NOT NULL,
		commission TEXT NOT NULL,
		opened_at DATETIME NOT NULL,
		origin_id TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- One analytics snapshot per account, overwritten per run.
	CREATE TABLE IF NOT EXISTS snapshots (
		account TEXT PRIMARY KEY,
		total_trades INTEGER NOT NULL,
		winning_trades INTEGER NOT NULL,
		losing_trades INTEGER NOT NULL,
		total_net_pnl TEXT NOT NULL,
		gross_profit TEXT NOT NULL,
		gross_loss TEXT NOT NULL,
		win_rate REAL NOT NULL,
		loss_rate REAL NOT NULL,
		profit_factor REAL NOT NULL,
		profit_factor_bounded INTEGER NOT NULL,
		avg_profit_per_win TEXT NOT NULL,
		avg_loss_per_loss TEXT NOT NULL,
		avg_pnl_per_trade TEXT NOT NULL,
		max_drawdown TEXT NOT NULL,
		avg_drawdown TEXT NOT NULL,
		max_drawdown_percent REAL NOT NULL,
		current_win_streak INTEGER NOT NULL,
		current_loss_streak INTEGER NOT NULL,
		longest_win_streak INTEGER NOT NULL,
		longest_loss_streak INTEGER NOT NULL,
		profitable_days INTEGER NOT NULL,
		loss_days INTEGER NOT NULL,
		computed_at DATETIME NOT NULL
	);

	-- Create indexes for performance
	CREATE INDEX IF NOT EXISTS idx_executions_account ON executions(account);
	CREATE INDEX IF NOT EXISTS idx_executions_symbol ON executions(account, symbol);
	CREATE INDEX IF NOT EXISTS idx_trades_account ON matched_trades(account);
	CREATE INDEX IF NOT EXISTS idx_trades_sell_time ON matched_trades(sell_time);
	CREATE INDEX IF NOT EXISTS idx_positions_account ON open_positions(account);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// Executions Methods
// ============================================================================

// SaveExecutions inserts executions, silently skipping any the account has
// already imported. Returns inserted and duplicate counts.
func (s *SQLiteStore) SaveExecutions(ctx context.Context, execs []models.RawExecution) (int, int, error) {
	if len(execs) == 0 {
		return 0, 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO executions (account, external_id, symbol, side, quantity, price, commission, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, e := range execs {
		result, err := stmt.ExecContext(ctx, e.Account, e.ExternalID, e.Symbol, string(e.Side),
			e.Quantity, e.Price.String(), e.Commission.String(), e.ExecutedAt)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to insert execution: %w", err)
		}
		rows, _ := result.RowsAffected()
		inserted += int(rows)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return inserted, len(execs) - inserted, nil
}

// GetExecutions retrieves all executions for an account in import order.
func (s *SQLiteStore) GetExecutions(ctx context.Context, account string) ([]models.RawExecution, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT account, external_id, symbol, side, quantity, price, commission, executed_at
		FROM executions WHERE account = ?
		ORDER BY executed_at ASC, external_id ASC
	`, account)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}
	defer rows.Close()

	var execs []models.RawExecution
	for rows.Next() {
		var e models.RawExecution
		var side, price, commission string
		if err := rows.Scan(&e.Account, &e.ExternalID, &e.Symbol, &side, &e.Quantity, &price, &commission, &e.ExecutedAt); err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		e.Side = models.Side(side)
		if e.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("failed to parse price %q: %w", price, err)
		}
		if e.Commission, err = decimal.NewFromString(commission); err != nil {
			return nil, fmt.Errorf("failed to parse commission %q: %w", commission, err)
		}
		execs = append(execs, e)
	}

	return execs, rows.Err()
}

// ============================================================================
// Run Output Methods
// ============================================================================

// ReplaceResults swaps an account's matched trades and open positions in one
// transaction so readers never see a half-written run.
func (s *SQLiteStore) ReplaceResults(ctx context.Context, account string, trades []models.MatchedTrade, open []models.OpenPosition) error {
	return s.writeResults(ctx, account, trades, open, true)
}

// AppendResults adds new matched trades and replaces the open position set,
// for incremental runs where prior trades remain valid.
func (s *SQLiteStore) AppendResults(ctx context.Context, account string, trades []models.MatchedTrade, open []models.OpenPosition) error {
	return s.writeResults(ctx, account, trades, open, false)
}

func (s *SQLiteStore) writeResults(ctx context.Context, account string, trades []models.MatchedTrade, open []models.OpenPosition, replaceTrades bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if replaceTrades {
		if _, err := tx.ExecContext(ctx, `DELETE FROM matched_trades WHERE account = ?`, account); err != nil {
			return fmt.Errorf("failed to clear matched trades: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM open_positions WHERE account = ?`, account); err != nil {
		return fmt.Errorf("failed to clear open positions: %w", err)
	}

	tradeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO matched_trades (account, symbol, quantity, buy_price, sell_price, buy_time, sell_time, profit, commission, buy_origin_id, sell_origin_id, hold_duration)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare trade statement: %w", err)
	}
	defer tradeStmt.Close()

	for _, t := range trades {
		_, err := tradeStmt.ExecContext(ctx, account, t.Symbol, t.Quantity,
			t.BuyPrice.String(), t.SellPrice.String(), t.BuyTime, t.SellTime,
			t.Profit.String(), t.Commission.String(), t.BuyOriginID, t.SellOriginID,
			t.HoldDuration.Nanoseconds())
		if err != nil {
			return fmt.Errorf("failed to insert matched trade: %w", err)
		}
	}

	posStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO open_positions (account, symbol, side, quantity, price, commission, opened_at, origin_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare position statement: %w", err)
	}
	defer posStmt.Close()

	for _, p := range open {
		_, err := posStmt.ExecContext(ctx, account, p.Symbol, string(p.Side), p.Quantity,
			p.Price.String(), p.Commission.String(), p.OpenedAt, p.OriginID)
		if err != nil {
			return fmt.Errorf("failed to insert open position: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetTrades retrieves matched trades matching the filter, realization order.
func (s *SQLiteStore) GetTrades(ctx context.Context, filter TradeFilter) ([]models.MatchedTrade, error) {
	query := `SELECT account, symbol, quantity, buy_price, sell_price, buy_time, sell_time, profit, commission, buy_origin_id, sell_origin_id, hold_duration
		FROM matched_trades WHERE 1=1`
	args := []interface{}{}

	if filter.Account != "" {
		query += " AND account = ?"
		args = append(args, filter.Account)
	}
	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, filter.Symbol)
	}
	if !filter.StartDate.IsZero() {
		query += " AND sell_time >= ?"
		args = append(args, filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		query += " AND sell_time <= ?"
		args = append(args, filter.EndDate)
	}

	query += " ORDER BY sell_time ASC, buy_time ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matched trades: %w", err)
	}
	defer rows.Close()

	var trades []models.MatchedTrade
	for rows.Next() {
		var t models.MatchedTrade
		var buyPrice, sellPrice, profit, commission string
		var holdNs int64
		if err := rows.Scan(&t.Account, &t.Symbol, &t.Quantity, &buyPrice, &sellPrice,
			&t.BuyTime, &t.SellTime, &profit, &commission, &t.BuyOriginID, &t.SellOriginID, &holdNs); err != nil {
			return nil, fmt.Errorf("failed to scan matched trade: %w", err)
		}
		if t.BuyPrice, err = decimal.NewFromString(buyPrice); err != nil {
			return nil, fmt.Errorf("failed to parse buy price %q: %w", buyPrice, err)
		}
		if t.SellPrice, err = decimal.NewFromString(sellPrice); err != nil {
			return nil, fmt.Errorf("failed to parse sell price %q: %w", sellPrice, err)
		}
		if t.Profit, err = decimal.NewFromString(profit); err != nil {
			return nil, fmt.Errorf("failed to parse profit %q: %w", profit, err)
		}
		if t.Commission, err = decimal.NewFromString(commission); err != nil {
			return nil, fmt.Errorf("failed to parse commission %q: %w", commission, err)
		}
		t.HoldDuration = time.Duration(holdNs)
		trades = append(trades, t)
	}

	return trades, rows.Err()
}

// GetOpenPositions retrieves an account's open positions.
func (s *SQLiteStore) GetOpenPositions(ctx context.Context, account string) ([]models.OpenPosition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT account, symbol, side, quantity, price, commission, opened_at, origin_id
		FROM open_positions WHERE account = ?
		ORDER BY opened_at ASC, origin_id ASC
	`, account)
	if err != nil {
		return nil, fmt.Errorf("failed to query open positions: %w", err)
	}
	defer rows.Close()

	var positions []models.OpenPosition
	for rows.Next() {
		var p models.OpenPosition
		var side, price, commission string
		if err := rows.Scan(&p.Account, &p.Symbol, &side, &p.Quantity, &price, &commission, &p.OpenedAt, &p.OriginID); err != nil {
			return nil, fmt.Errorf("failed to scan open position: %w", err)
		}
		p.Side = models.PositionSide(side)
		if p.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("failed to parse price %q: %w", price, err)
		}
		if p.Commission, err = decimal.NewFromString(commission); err != nil {
			return nil, fmt.Errorf("failed to parse commission %q: %w", commission, err)
		}
		positions = append(positions, p)
	}

	return positions, rows.Err()
}

// ============================================================================
// Snapshot Methods
// ============================================================================

// SaveSnapshot overwrites the account's analytics snapshot.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap *models.AnalyticsSnapshot) error {
	bounded := 0
	if snap.ProfitFactorBounded {
		bounded = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO snapshots (account, total_trades, winning_trades, losing_trades,
			total_net_pnl, gross_profit, gross_loss, win_rate, loss_rate,
			profit_factor, profit_factor_bounded, avg_profit_per_win, avg_loss_per_loss, avg_pnl_per_trade,
			max_drawdown, avg_drawdown, max_drawdown_percent,
			current_win_streak, current_loss_streak, longest_win_streak, longest_loss_streak,
			profitable_days, loss_days, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, snap.Account, snap.TotalTrades, snap.WinningTrades, snap.LosingTrades,
		snap.TotalNetProfitLoss.String(), snap.GrossProfit.String(), snap.GrossLoss.String(),
		snap.WinRate, snap.LossRate, snap.ProfitFactor, bounded,
		snap.AvgProfitPerWin.String(), snap.AvgLossPerLoss.String(), snap.AvgProfitLossPerTrade.String(),
		snap.MaxDrawdown.String(), snap.AvgDrawdown.String(), snap.MaxDrawdownPercent,
		snap.CurrentWinStreak, snap.CurrentLossStreak, snap.LongestWinStreak, snap.LongestLossStreak,
		snap.ProfitableDays, snap.LossDays, snap.ComputedAt)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// GetSnapshot retrieves the account's analytics snapshot, nil if absent.
func (s *SQLiteStore) GetSnapshot(ctx context.Context, account string) (*models.AnalyticsSnapshot, error) {
	var snap models.AnalyticsSnapshot
	var totalNet, grossProfit, grossLoss, avgWin, avgLoss, avgTrade, maxDD, avgDD string
	var bounded int

	err := s.db.QueryRowContext(ctx, `
		SELECT account, total_trades, winning_trades, losing_trades,
			total_net_pnl, gross_profit, gross_loss, win_rate, loss_rate,
			profit_factor, profit_factor_bounded, avg_profit_per_win, avg_loss_per_loss, avg_pnl_per_trade,
			max_drawdown, avg_drawdown, max_drawdown_percent,
			current_win_streak, current_loss_streak, longest_win_streak, longest_loss_streak,
			profitable_days, loss_days, computed_at
		FROM snapshots WHERE account = ?
	`, account).Scan(&snap.Account, &snap.TotalTrades, &snap.WinningTrades, &snap.LosingTrades,
		&totalNet, &grossProfit, &grossLoss, &snap.WinRate, &snap.LossRate,
		&snap.ProfitFactor, &bounded, &avgWin, &avgLoss, &avgTrade,
		&maxDD, &avgDD, &snap.MaxDrawdownPercent,
		&snap.CurrentWinStreak, &snap.CurrentLossStreak, &snap.LongestWinStreak, &snap.LongestLossStreak,
		&snap.ProfitableDays, &snap.LossDays, &snap.ComputedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	snap.ProfitFactorBounded = bounded == 1
	fields := []struct {
		dst *decimal.Decimal
		src string
	}{
		{&snap.TotalNetProfitLoss, totalNet},
		{&snap.GrossProfit, grossProfit},
		{&snap.GrossLoss, grossLoss},
		{&snap.AvgProfitPerWin, avgWin},
		{&snap.AvgLossPerLoss, avgLoss},
		{&snap.AvgProfitLossPerTrade, avgTrade},
		{&snap.MaxDrawdown, maxDD},
		{&snap.AvgDrawdown, avgDD},
	}
	for _, f := range fields {
		if *f.dst, err = decimal.NewFromString(f.src); err != nil {
			return nil, fmt.Errorf("failed to parse snapshot field %q: %w", f.src, err)
		}
	}

	return &snap, nil
}

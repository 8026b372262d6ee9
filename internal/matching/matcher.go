// Package matching reconstructs economically meaningful trades from raw
// buy/sell executions. It pairs opposing fills into closed round trips using
// per-symbol FIFO lot queues and reports whatever could not be paired as open
// positions.
//
// FIFO is the standard, auditable convention for retail trade reconciliation
// and makes the matcher deterministic: the same execution set always yields
// the same matches, which keeps re-imports idempotent.
//
// All monetary values use shopspring/decimal — never float64 for money.
package matching

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"tradeledger/internal/errors"
	"tradeledger/internal/models"
)

// CommissionScale is the number of decimal places a proportionally allocated
// commission slice is rounded to. The rounding remainder of a split execution
// always lands on its last descendant, so commission is conserved exactly.
const CommissionScale int32 = 4

// SkippedExecution records one input row rejected before matching, with the
// reason it was rejected. Skipped rows never abort a batch.
type SkippedExecution struct {
	Execution models.RawExecution
	Reason    string
}

// Result is the full output of one matching run.
type Result struct {
	Trades    []models.MatchedTrade
	Open      []models.OpenPosition
	NetProfit decimal.Decimal
	Skipped   []SkippedExecution
}

// Match pairs executions into closed trades and residual open positions.
// Input order does not matter; executions are sorted by (timestamp,
// external ID) per symbol before processing.
func Match(executions []models.RawExecution) (*Result, error) {
	return MatchIncremental(executions, nil)
}

// MatchIncremental runs a matching pass with prior open positions seeded into
// the lot pool. Carried positions keep their original chronological order and
// take priority over new executions bearing the same timestamp.
func MatchIncremental(executions []models.RawExecution, carried []models.OpenPosition) (*Result, error) {
	res := &Result{NetProfit: decimal.Zero}

	seq := make([]workingExec, 0, len(executions)+len(carried))
	for _, pos := range carried {
		seq = append(seq, workingExec{
			exec: models.RawExecution{
				Account:    pos.Account,
				ExternalID: pos.OriginID,
				Symbol:     pos.Symbol,
				Side:       models.ExecutionSideFor(pos.Side),
				Quantity:   pos.Quantity,
				Price:      pos.Price,
				Commission: pos.Commission,
				ExecutedAt: pos.OpenedAt,
			},
			carried: true,
		})
	}
	for _, exec := range executions {
		if reason, ok := validate(exec); !ok {
			res.Skipped = append(res.Skipped, SkippedExecution{Execution: exec, Reason: reason})
			continue
		}
		seq = append(seq, workingExec{exec: exec})
	}

	sortSequence(seq)

	books := make(map[string]*symbolBook)
	for i := range seq {
		w := &seq[i]
		book := books[w.exec.Symbol]
		if book == nil {
			book = &symbolBook{symbol: w.exec.Symbol}
			books[w.exec.Symbol] = book
		}
		if err := book.apply(w, res); err != nil {
			return nil, err
		}
	}

	// Residual lots become open positions, symbols in lexicographic order so
	// repeated runs produce identical output.
	symbols := make([]string, 0, len(books))
	for sym := range books {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	for _, sym := range symbols {
		books[sym].drain(res)
	}

	return res, nil
}

// workingExec is one execution flowing through the matcher, with its
// still-unmatched quantity and still-unallocated commission.
type workingExec struct {
	exec       models.RawExecution
	remaining  int64
	commission decimal.Decimal
	carried    bool
}

// sortSequence establishes the authoritative processing order: timestamp
// ascending, carried positions ahead of new executions on ties, then
// external ID lexicographically.
func sortSequence(seq []workingExec) {
	sort.SliceStable(seq, func(i, j int) bool {
		a, b := &seq[i], &seq[j]
		if !a.exec.ExecutedAt.Equal(b.exec.ExecutedAt) {
			return a.exec.ExecutedAt.Before(b.exec.ExecutedAt)
		}
		if a.carried != b.carried {
			return a.carried
		}
		return a.exec.ExternalID < b.exec.ExternalID
	})
}

func validate(exec models.RawExecution) (string, bool) {
	switch {
	case exec.Symbol == "":
		return "missing symbol", false
	case !exec.Side.Valid():
		return fmt.Sprintf("unknown side %q", string(exec.Side)), false
	case exec.Quantity <= 0:
		return fmt.Sprintf("non-positive quantity %d", exec.Quantity), false
	case exec.Price.LessThanOrEqual(decimal.Zero):
		return fmt.Sprintf("non-positive price %s", exec.Price), false
	case exec.Commission.IsNegative():
		return fmt.Sprintf("negative commission %s", exec.Commission), false
	case exec.ExecutedAt.IsZero():
		return "missing timestamp", false
	}
	return "", true
}

// symbolBook holds the two FIFO lot queues for one symbol.
type symbolBook struct {
	symbol string
	buys   []*models.Lot
	sells  []*models.Lot
}

func (b *symbolBook) apply(w *workingExec, res *Result) error {
	w.remaining = w.exec.Quantity
	w.commission = w.exec.Commission

	opposite := &b.sells
	if w.exec.Side == models.SideSell {
		opposite = &b.buys
	}

	for w.remaining > 0 && len(*opposite) > 0 {
		lot := (*opposite)[0]
		qty := w.remaining
		if lot.Remaining < qty {
			qty = lot.Remaining
		}
		if qty <= 0 {
			return errors.NewConsistencyError(b.symbol, "match quantity",
				fmt.Sprintf("non-positive match of %d units between %s and %s", qty, lot.OriginID, w.exec.ExternalID))
		}

		lotCommission := takeCommission(&lot.Commission, qty, lot.Remaining)
		execCommission := takeCommission(&w.commission, qty, w.remaining)
		lot.Remaining -= qty
		w.remaining -= qty
		if lot.Remaining < 0 || w.remaining < 0 {
			return errors.NewConsistencyError(b.symbol, "remaining quantity",
				fmt.Sprintf("negative remainder after matching %d units from %s", qty, w.exec.ExternalID))
		}

		res.record(buildTrade(w, lot, qty, lotCommission.Add(execCommission)))

		if lot.Remaining == 0 {
			*opposite = (*opposite)[1:]
		}
	}

	if w.remaining > 0 {
		lot := &models.Lot{
			Symbol:     b.symbol,
			Side:       w.exec.Side,
			Remaining:  w.remaining,
			Price:      w.exec.Price,
			Commission: w.commission,
			ExecutedAt: w.exec.ExecutedAt,
			OriginID:   w.exec.ExternalID,
		}
		if w.exec.Side == models.SideBuy {
			b.buys = append(b.buys, lot)
		} else {
			b.sells = append(b.sells, lot)
		}
	}
	return nil
}

// buildTrade assigns the buy and sell roles by side, not by arrival order, so
// short round trips (sell first, buy later) carry a correctly signed profit.
func buildTrade(w *workingExec, lot *models.Lot, qty int64, commission decimal.Decimal) models.MatchedTrade {
	t := models.MatchedTrade{
		Account:    w.exec.Account,
		Symbol:     w.exec.Symbol,
		Quantity:   qty,
		Commission: commission,
	}
	if w.exec.Side == models.SideSell {
		t.BuyPrice, t.BuyTime, t.BuyOriginID = lot.Price, lot.ExecutedAt, lot.OriginID
		t.SellPrice, t.SellTime, t.SellOriginID = w.exec.Price, w.exec.ExecutedAt, w.exec.ExternalID
	} else {
		t.BuyPrice, t.BuyTime, t.BuyOriginID = w.exec.Price, w.exec.ExecutedAt, w.exec.ExternalID
		t.SellPrice, t.SellTime, t.SellOriginID = lot.Price, lot.ExecutedAt, lot.OriginID
	}
	gross := t.SellPrice.Sub(t.BuyPrice).Mul(decimal.NewFromInt(qty))
	t.Profit = gross.Sub(commission)
	t.HoldDuration = t.SellTime.Sub(t.BuyTime)
	return t
}

func (r *Result) record(t models.MatchedTrade) {
	r.Trades = append(r.Trades, t)
	r.NetProfit = r.NetProfit.Add(t.Profit)
}

func (b *symbolBook) drain(res *Result) {
	for _, lot := range b.buys {
		res.Open = append(res.Open, openPosition(lot))
	}
	for _, lot := range b.sells {
		res.Open = append(res.Open, openPosition(lot))
	}
}

func openPosition(lot *models.Lot) models.OpenPosition {
	return models.OpenPosition{
		Symbol:     lot.Symbol,
		Side:       models.PositionSideFor(lot.Side),
		Quantity:   lot.Remaining,
		Price:      lot.Price,
		Commission: lot.Commission,
		OpenedAt:   lot.ExecutedAt,
		OriginID:   lot.OriginID,
	}
}

// takeCommission carves a quantity-proportional commission slice out of the
// lot's unallocated total. Consuming the whole remainder takes everything
// left, which pins any rounding drift onto the final descendant.
func takeCommission(total *decimal.Decimal, qty, remaining int64) decimal.Decimal {
	if qty >= remaining {
		all := *total
		*total = decimal.Zero
		return all
	}
	share := total.Mul(decimal.NewFromInt(qty)).
		DivRound(decimal.NewFromInt(remaining), CommissionScale)
	*total = total.Sub(share)
	return share
}

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tradeledger/internal/analytics"
	"tradeledger/internal/charts"
	"tradeledger/internal/store"
)

// addReportCommands adds read-side reporting commands.
func addReportCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newStatsCmd(app))
	rootCmd.AddCommand(newChartsCmd(app))
	rootCmd.AddCommand(newTradesCmd(app))
}

func newStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the performance snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			account, _ := cmd.Flags().GetString("account")
			if app.Store == nil {
				return fmt.Errorf("store not initialized")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			snap, err := app.Store.GetSnapshot(ctx, account)
			if err != nil {
				return err
			}
			if snap == nil {
				// Nothing persisted yet: derive from whatever trades exist.
				trades, err := app.Store.GetTrades(ctx, store.TradeFilter{Account: account})
				if err != nil {
					return err
				}
				derived := analytics.Aggregate(trades)
				derived.Account = account
				snap = &derived
			}

			if output.IsJSON() {
				return output.JSON(snap)
			}

			output.Bold("Performance - %s", account)
			output.Println()

			profitFactor := "inf"
			if snap.ProfitFactorBounded {
				profitFactor = fmt.Sprintf("%.2f", snap.ProfitFactor)
			}

			table := NewTable(output, "Metric", "Value")
			table.AddRow("Total trades", fmt.Sprintf("%d", snap.TotalTrades))
			table.AddRow("Winners / losers", fmt.Sprintf("%d / %d", snap.WinningTrades, snap.LosingTrades))
			table.AddRow("Win rate", FormatPercent(snap.WinRate))
			table.AddRow("Net P&L", FormatPnL(snap.TotalNetProfitLoss))
			table.AddRow("Gross profit", FormatMoney(snap.GrossProfit))
			table.AddRow("Gross loss", FormatMoney(snap.GrossLoss))
			table.AddRow("Profit factor", profitFactor)
			table.AddRow("Avg win", FormatMoney(snap.AvgProfitPerWin))
			table.AddRow("Avg loss", FormatMoney(snap.AvgLossPerLoss))
			table.AddRow("Avg per trade", FormatPnL(snap.AvgProfitLossPerTrade))
			table.AddRow("Max drawdown", FormatMoney(snap.MaxDrawdown))
			table.AddRow("Max drawdown %", FormatPercent(snap.MaxDrawdownPercent))
			table.AddRow("Avg drawdown", FormatMoney(snap.AvgDrawdown))
			table.AddRow("Longest win streak", fmt.Sprintf("%d", snap.LongestWinStreak))
			table.AddRow("Longest loss streak", fmt.Sprintf("%d", snap.LongestLossStreak))
			table.AddRow("Profitable days", fmt.Sprintf("%d", snap.ProfitableDays))
			table.AddRow("Losing days", fmt.Sprintf("%d", snap.LossDays))
			table.Render()
			return nil
		},
	}
}

func newChartsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "charts",
		Short: "Show chart series derived from closed trades",
		Long:  "Rebuild the chart bundle on demand from the stored matched trades.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			account, _ := cmd.Flags().GetString("account")
			if app.Store == nil {
				return fmt.Errorf("store not initialized")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			trades, err := app.Store.GetTrades(ctx, store.TradeFilter{Account: account})
			if err != nil {
				return err
			}
			bundle := charts.Build(trades, charts.Options{
				HistogramBins: app.Config.Charts.HistogramBins,
				TopSymbols:    app.Config.Charts.TopSymbols,
			})

			if output.IsJSON() {
				return output.JSON(bundle)
			}
			if len(trades) == 0 {
				output.Info("No closed trades yet.")
				return nil
			}

			output.Bold("Win/Loss: %d / %d", bundle.WinLoss.Winners, bundle.WinLoss.Losers)
			output.Println()

			output.Bold("Top symbols")
			symbolTable := NewTable(output, "Symbol", "Trades", "Total P&L", "Avg P&L")
			for _, s := range bundle.TopSymbols {
				symbolTable.AddRow(s.Symbol, fmt.Sprintf("%d", s.TradeCount),
					FormatPnL(s.TotalProfit), FormatPnL(s.AvgProfit))
			}
			symbolTable.Render()
			output.Println()

			output.Bold("By hour of day")
			hourTable := NewTable(output, "Hour", "Trades", "Total P&L", "Avg P&L")
			for _, b := range bundle.HourOfDay {
				hourTable.AddRow(FormatHour(b.Bucket), fmt.Sprintf("%d", b.TradeCount),
					FormatPnL(b.TotalPnL), FormatPnL(b.AvgProfit))
			}
			hourTable.Render()
			output.Println()

			output.Bold("By day of week")
			dayTable := NewTable(output, "Day", "Trades", "Total P&L", "Avg P&L")
			for _, b := range bundle.DayOfWeek {
				dayTable.AddRow(FormatWeekday(b.Bucket), fmt.Sprintf("%d", b.TradeCount),
					FormatPnL(b.TotalPnL), FormatPnL(b.AvgProfit))
			}
			dayTable.Render()
			return nil
		},
	}
}

func newTradesCmd(app *App) *cobra.Command {
	var symbol string
	var limit int

	cmd := &cobra.Command{
		Use:   "trades",
		Short: "List closed round-trip trades",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			account, _ := cmd.Flags().GetString("account")
			if app.Store == nil {
				return fmt.Errorf("store not initialized")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			trades, err := app.Store.GetTrades(ctx, store.TradeFilter{
				Account: account,
				Symbol:  symbol,
				Limit:   limit,
			})
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(trades)
			}
			if len(trades) == 0 {
				output.Info("No closed trades.")
				return nil
			}

			table := NewTable(output, "Symbol", "Qty", "Buy", "Sell", "P&L", "Held", "Closed")
			for _, t := range trades {
				pnl := output.ColoredString(output.PnLColor(t.Profit.Sign()), FormatPnL(t.Profit))
				table.AddRow(t.Symbol, fmt.Sprintf("%d", t.Quantity),
					FormatMoney(t.BuyPrice), FormatMoney(t.SellPrice),
					pnl, FormatDuration(t.HoldDuration), FormatDateTime(t.SellTime))
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&symbol, "symbol", "", "filter by symbol")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum trades to list")

	return cmd
}

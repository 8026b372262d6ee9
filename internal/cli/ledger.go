package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// addLedgerCommands adds matching-run commands.
func addLedgerCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newRecomputeCmd(app))
	rootCmd.AddCommand(newPositionsCmd(app))
}

func newRecomputeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "recompute",
		Short: "Rebuild the ledger from stored executions",
		Long: `Re-run FIFO matching over the account's full execution history.

The previous run's matched trades and open positions are replaced in one
transaction, and the analytics snapshot is rebuilt. Running this twice on
the same data produces identical output.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			account, _ := cmd.Flags().GetString("account")
			if app.Engine == nil {
				return fmt.Errorf("store not initialized")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			report, err := app.Engine.Recompute(ctx, account)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(report)
			}

			output.Success("Recompute complete for %s", account)
			output.Printf("  closed trades:  %d\n", report.Trades)
			output.Printf("  open positions: %d\n", report.Open)
			output.Printf("  net P&L:        %s\n", FormatPnL(report.NetProfit))
			for _, skipped := range report.Skipped {
				output.Warning("execution %s skipped: %s", skipped.Execution.ExternalID, skipped.Reason)
			}
			return nil
		},
	}
}

func newPositionsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "positions",
		Short: "Show open positions",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			account, _ := cmd.Flags().GetString("account")
			if app.Store == nil {
				return fmt.Errorf("store not initialized")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			positions, err := app.Store.GetOpenPositions(ctx, account)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(positions)
			}
			if len(positions) == 0 {
				output.Info("No open positions.")
				return nil
			}

			table := NewTable(output, "Symbol", "Side", "Qty", "Price", "Commission", "Opened")
			for _, p := range positions {
				table.AddRow(p.Symbol, string(p.Side), fmt.Sprintf("%d", p.Quantity),
					FormatMoney(p.Price), FormatMoney(p.Commission), FormatDateTime(p.OpenedAt))
			}
			table.Render()
			return nil
		},
	}
}

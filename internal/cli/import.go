package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"tradeledger/internal/ingest"
)

// addImportCommands adds execution import commands.
func addImportCommands(rootCmd *cobra.Command, app *App) {
	var noRecompute bool

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import executions from a broker CSV export",
		Long: `Parse a normalized broker CSV export and store its executions.

Rows already imported for the account (same external id) are skipped, so
re-importing a file is safe. Malformed rows are reported and skipped, never
fatal. Unless --no-recompute is given, the ledger is recomputed afterwards.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			account, _ := cmd.Flags().GetString("account")
			if app.Store == nil {
				return fmt.Errorf("store not initialized")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer file.Close()

			batch, err := ingest.ReadCSV(file, account)
			if err != nil {
				return err
			}

			inserted, duplicates, err := app.Store.SaveExecutions(ctx, batch.Executions)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				report := map[string]interface{}{
					"batch_id":   batch.ID,
					"inserted":   inserted,
					"duplicates": duplicates,
					"skipped":    batch.Skipped,
				}
				if err := output.JSON(report); err != nil {
					return err
				}
			} else {
				output.Success("Imported %d executions (%d duplicates skipped)", inserted, duplicates)
				for _, skipped := range batch.Skipped {
					output.Warning("line %d skipped: %s", skipped.Line, skipped.Reason)
				}
			}

			if noRecompute || app.Engine == nil {
				return nil
			}
			report, err := app.Engine.Recompute(ctx, account)
			if err != nil {
				return err
			}
			if !output.IsJSON() {
				output.Info("Recomputed: %d closed trades, %d open positions, net P&L %s",
					report.Trades, report.Open, FormatPnL(report.NetProfit))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noRecompute, "no-recompute", false, "import only, skip ledger recompute")

	rootCmd.AddCommand(cmd)
}

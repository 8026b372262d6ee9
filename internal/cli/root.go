// Package cli provides the command-line interface for the trade ledger.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tradeledger/internal/charts"
	"tradeledger/internal/config"
	"tradeledger/internal/engine"
	"tradeledger/internal/logging"
	"tradeledger/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-01-01"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Store  store.DataStore
	Engine *engine.Engine
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	dataStore, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, some features may be unavailable")
	} else {
		app.Store = dataStore
		app.Engine = engine.New(dataStore, logger, charts.Options{
			HistogramBins: cfg.Charts.HistogramBins,
			TopSymbols:    cfg.Charts.TopSymbols,
		})
		logger.Debug().Str("path", cfg.Database.Path).Msg("SQLite store initialized")
	}

	rootCmd := &cobra.Command{
		Use:   "tradeledger",
		Short: "Trade Ledger - execution matching and performance analytics",
		Long: `Trade Ledger reconstructs round-trip trades from raw buy/sell executions
and derives performance analytics from them.

Import broker CSV exports, recompute the ledger, and inspect win rate,
profit factor, drawdown, streaks and seasonality per account.

Use 'tradeledger help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/tradeledger)")
	rootCmd.PersistentFlags().String("account", "default", "account the command operates on")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addImportCommands(rootCmd, app)
	addLedgerCommands(rootCmd, app)
	addReportCommands(rootCmd, app)
	addVersionCommand(rootCmd)

	return rootCmd
}

func addVersionCommand(rootCmd *cobra.Command) {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version, "build_date": BuildDate})
				return
			}
			output.Printf("tradeledger %s (built %s)\n", Version, BuildDate)
		},
	})
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"invoicing/internal/config"
	"invoicing/internal/logger"
)

var version = "1.0.0"

// cfg is set by Execute before any command runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "invoicing",
	Short: "Invoicing CLI - create invoices, record payments and track receivables",
	Long: `Invoicing CLI manages the invoice lifecycle for a professional services
practice: draft invoices with line items, send them, record full or partial
payments, flag overdue invoices and export the receivables register.

Invoices are stored in a local SQLite ledger (LEDGER_DATABASE_PATH). All
amounts are exact decimals; tax and discount are rounded half-up to two
decimal places.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI with the loaded configuration.
func Execute(c *config.Config) {
	log := logger.WithComponent("cmd")
	cfg = c

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Ledger database path (default: $LEDGER_DATABASE_PATH)")
	rootCmd.PersistentFlags().String("date", "", "Treat this date (YYYY-MM-DD) as today")
	rootCmd.PersistentFlags().Int("timeout", 60, "Command timeout in seconds")
}

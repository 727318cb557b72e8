package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"invoicing/internal/invoice"
	"invoicing/internal/logger"
)

var numberCmd = &cobra.Command{
	Use:   "number",
	Short: "Invoice numbering",
}

var numberNextCmd = &cobra.Command{
	Use:   "next",
	Short: "Print the number the next invoice will get",
	Long: `Print the next invoice number without creating an invoice.

Numbers have the form PREFIX-YYYY-NNNN. The sequence continues from the most
recently created invoice and restarts at 0001 in a new year.`,
	Args: cobra.NoArgs,
	RunE: runNumberNext,
}

func init() {
	rootCmd.AddCommand(numberCmd)
	numberCmd.AddCommand(numberNextCmd)
}

func runNumberNext(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("number")

	ctx, cancel := createContext(cmd, log)
	defer cancel()

	a, err := newApp(cmd, log)
	if err != nil {
		return err
	}
	defer a.Close()

	next, err := invoice.NewNumberGenerator(a.repo, cfg.NumberPrefix).Next(ctx, a.today().Year())
	if err != nil {
		return handleLedgerError(err, log)
	}
	fmt.Println(next)
	return nil
}

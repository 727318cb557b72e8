package cmd

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"invoicing/internal/export"
	"invoicing/internal/invoice"
	"invoicing/internal/logger"
	"invoicing/internal/sheets"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the receivables register",
	Long: `Export one row per invoice with totals, payments received, outstanding
balance and days overdue. Cancelled invoices are left out unless
--include-cancelled is given.`,
}

var exportXLSXCmd = &cobra.Command{
	Use:     "xlsx",
	Short:   "Write the register to an Excel workbook",
	Example: `  invoicing export xlsx -o receivables.xlsx`,
	Args:    cobra.NoArgs,
	RunE:    runExportXLSX,
}

var exportSheetsCmd = &cobra.Command{
	Use:   "sheets",
	Short: "Publish the register to a Google Sheet",
	Long: `Replace the contents of a Google Sheets worksheet with the register.

Required environment variables:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
  GOOGLE_SHEET_URL - Spreadsheet URL (or --url)`,
	Args: cobra.NoArgs,
	RunE: runExportSheets,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.AddCommand(exportXLSXCmd, exportSheetsCmd)

	exportCmd.PersistentFlags().Bool("include-cancelled", false, "Include cancelled invoices")
	exportCmd.PersistentFlags().Int64("client-id", 0, "Only invoices for this client")
	exportCmd.PersistentFlags().Bool("progress", true, "Show a progress bar on stderr")

	exportXLSXCmd.Flags().StringP("output", "o", "receivables.xlsx", "Output file path")

	exportSheetsCmd.Flags().String("url", "", "Spreadsheet URL (default: $GOOGLE_SHEET_URL)")
	exportSheetsCmd.Flags().String("worksheet", "", "Worksheet name (default: $GOOGLE_SHEET_WORKSHEET)")
}

// buildRegister loads the invoices selected by the export flags and converts
// them to register rows.
func buildRegister(cmd *cobra.Command, a *app) ([]export.RegisterRow, error) {
	includeCancelled, _ := cmd.Flags().GetBool("include-cancelled")
	clientID, _ := cmd.Flags().GetInt64("client-id")
	showProgress, _ := cmd.Flags().GetBool("progress")

	filter := invoice.Filter{ClientID: clientID}
	if !includeCancelled {
		filter.ExcludeStatuses = []invoice.Status{invoice.StatusCancelled}
	}

	invs, err := a.invoices.List(cmd.Context(), filter)
	if err != nil {
		return nil, err
	}

	var bar *progressbar.ProgressBar
	if showProgress {
		bar = progressbar.NewOptions(len(invs),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Building register"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionClearOnFinish(),
		)
	}

	today := a.today()
	rows := make([]export.RegisterRow, 0, len(invs))
	for _, inv := range invs {
		rows = append(rows, export.BuildRegister([]*invoice.Invoice{inv}, today)...)
		if bar != nil {
			bar.Add(1)
		}
	}
	if bar != nil {
		bar.Finish()
	}
	return rows, nil
}

func runExportXLSX(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("export-xlsx")
	outputPath, _ := cmd.Flags().GetString("output")

	ctx, cancel := createContext(cmd, log)
	defer cancel()
	cmd.SetContext(ctx)

	a, err := newApp(cmd, log)
	if err != nil {
		return err
	}
	defer a.Close()

	rows, err := buildRegister(cmd, a)
	if err != nil {
		return handleLedgerError(err, log)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close output file")
		}
	}()

	if err := export.WriteXLSX(file, rows); err != nil {
		log.Error().Err(err).Str("output", outputPath).Msg("Failed to write workbook")
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	_, _, outstanding := export.Totals(rows)
	log.Info().
		Str("output", outputPath).
		Int("rows", len(rows)).
		Str("outstanding", outstanding.String()).
		Msg("Register exported")
	fmt.Fprintf(os.Stderr, "Wrote %d invoices to %s (outstanding %s)\n", len(rows), outputPath, outstanding)
	return nil
}

func runExportSheets(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("export-sheets")

	sheetURL, _ := cmd.Flags().GetString("url")
	if sheetURL == "" {
		sheetURL = cfg.GoogleSheetURL
	}
	worksheet, _ := cmd.Flags().GetString("worksheet")
	if worksheet == "" {
		worksheet = cfg.GoogleSheetWorksheet
	}
	if sheetURL == "" {
		return fmt.Errorf("no spreadsheet configured. Set GOOGLE_SHEET_URL or pass --url")
	}

	ctx, cancel := createContext(cmd, log)
	defer cancel()
	cmd.SetContext(ctx)

	a, err := newApp(cmd, log)
	if err != nil {
		return err
	}
	defer a.Close()

	rows, err := buildRegister(cmd, a)
	if err != nil {
		return handleLedgerError(err, log)
	}

	svc, err := sheets.NewSheetsService(ctx, sheetURL)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create Google Sheets service")
		return fmt.Errorf("failed to connect to Google Sheets: %w", err)
	}
	if err := svc.WriteRegister(ctx, rows, worksheet); err != nil {
		return fmt.Errorf("failed to publish register: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Published %d invoices to worksheet %q\n", len(rows), worksheet)
	return nil
}

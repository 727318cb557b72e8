package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"invoicing/internal/invoice"
	"invoicing/internal/logger"
	"invoicing/pkg/models"
)

var invoiceCmd = &cobra.Command{
	Use:   "invoice",
	Short: "Create, edit and inspect invoices",
	Long: `Manage invoices in the ledger.

New invoices start as DRAFT. Line items, tax and discount can only be changed
while an invoice is a draft; "invoice send" freezes them. An invoice can be
referenced by its numeric ID or by its number (e.g. INV-2025-0001).`,
}

var invoiceCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a draft invoice",
	Long: `Create a draft invoice for a client.

Line items are given as --item "description|quantity|unit price". Services
assigned to the client are given as --service "assignment id|service id|name|quoted price"
and billed at quantity 1. Tax, discount and payment term fall back to
DEFAULT_TAX_PERCENTAGE, DEFAULT_DISCOUNT_PERCENTAGE and DEFAULT_PAYMENT_TERM_DAYS.`,
	Example: `  # Manual invoice with two items
  invoicing invoice create --client-id 7 --client-name "Acme Traders" \
    --item "Statutory audit|1|2500.00" --item "GST filing|1|1500.00"

  # Bill assigned services with a 5% discount and 30 day term
  invoicing invoice create --client-id 7 --client-name "Acme Traders" \
    --service "11|3|Bookkeeping|2500" --discount 5 --term-days 30`,
	Args: cobra.NoArgs,
	RunE: runInvoiceCreate,
}

var invoiceShowCmd = &cobra.Command{
	Use:   "show <invoice>",
	Short: "Print an invoice as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runInvoiceShow,
}

var invoiceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List invoices",
	Example: `  invoicing invoice list --status SENT --status OVERDUE
  invoicing invoice list --client-id 7`,
	Args: cobra.NoArgs,
	RunE: runInvoiceList,
}

var invoiceSendCmd = &cobra.Command{
	Use:   "send <invoice>",
	Short: "Mark a draft invoice as sent",
	Args:  cobra.ExactArgs(1),
	RunE:  runInvoiceSend,
}

var invoiceCancelCmd = &cobra.Command{
	Use:   "cancel <invoice>",
	Short: "Cancel an unpaid invoice",
	Args:  cobra.ExactArgs(1),
	RunE:  runInvoiceCancel,
}

var invoiceDeleteCmd = &cobra.Command{
	Use:   "delete <invoice>",
	Short: "Delete a draft or cancelled invoice",
	Args:  cobra.ExactArgs(1),
	RunE:  runInvoiceDelete,
}

var invoiceAddItemCmd = &cobra.Command{
	Use:     "add-item <invoice> <description|quantity|unit price>",
	Short:   "Add a line item to a draft invoice",
	Example: `  invoicing invoice add-item INV-2025-0001 "Courier charges|2|50"`,
	Args:    cobra.ExactArgs(2),
	RunE:    runInvoiceAddItem,
}

var invoiceUpdateItemCmd = &cobra.Command{
	Use:   "update-item <invoice> <item id>",
	Short: "Change description, quantity or price of a line item",
	Args:  cobra.ExactArgs(2),
	RunE:  runInvoiceUpdateItem,
}

var invoiceRemoveItemCmd = &cobra.Command{
	Use:   "remove-item <invoice> <item id>",
	Short: "Remove a line item from a draft invoice",
	Args:  cobra.ExactArgs(2),
	RunE:  runInvoiceRemoveItem,
}

var invoiceSetRatesCmd = &cobra.Command{
	Use:   "set-rates <invoice>",
	Short: "Change tax and/or discount percentage of a draft invoice",
	Args:  cobra.ExactArgs(1),
	RunE:  runInvoiceSetRates,
}

func init() {
	rootCmd.AddCommand(invoiceCmd)
	invoiceCmd.AddCommand(
		invoiceCreateCmd,
		invoiceShowCmd,
		invoiceListCmd,
		invoiceSendCmd,
		invoiceCancelCmd,
		invoiceDeleteCmd,
		invoiceAddItemCmd,
		invoiceUpdateItemCmd,
		invoiceRemoveItemCmd,
		invoiceSetRatesCmd,
	)

	invoiceCreateCmd.Flags().Int64("client-id", 0, "Client ID (required)")
	invoiceCreateCmd.Flags().String("client-name", "", "Client name (required)")
	invoiceCreateCmd.Flags().String("client-email", "", "Client email")
	invoiceCreateCmd.Flags().String("client-gstin", "", "Client GSTIN")
	invoiceCreateCmd.Flags().StringArray("item", nil, `Line item "description|quantity|unit price" (repeatable)`)
	invoiceCreateCmd.Flags().StringArray("service", nil, `Assigned service "assignment id|service id|name|quoted price" (repeatable)`)
	invoiceCreateCmd.Flags().String("tax", "", "Tax percentage (default: $DEFAULT_TAX_PERCENTAGE)")
	invoiceCreateCmd.Flags().String("discount", "", "Discount percentage (default: $DEFAULT_DISCOUNT_PERCENTAGE)")
	invoiceCreateCmd.Flags().Int("term-days", 0, "Days until due (default: $DEFAULT_PAYMENT_TERM_DAYS)")
	invoiceCreateCmd.Flags().String("notes", "", "Notes printed on the invoice")
	invoiceCreateCmd.Flags().String("terms", "", "Terms and conditions")
	invoiceCreateCmd.MarkFlagRequired("client-id")
	invoiceCreateCmd.MarkFlagRequired("client-name")
	invoiceCreateCmd.MarkFlagsMutuallyExclusive("item", "service")

	invoiceListCmd.Flags().StringArray("status", nil, "Only invoices in this status (repeatable)")
	invoiceListCmd.Flags().Int64("client-id", 0, "Only invoices for this client")
	invoiceListCmd.Flags().Bool("overdue", false, "Only issued invoices past their due date that still owe money")

	invoiceCancelCmd.Flags().String("reason", "", "Cancellation reason appended to the notes")

	invoiceUpdateItemCmd.Flags().String("description", "", "New description")
	invoiceUpdateItemCmd.Flags().String("quantity", "", "New quantity")
	invoiceUpdateItemCmd.Flags().String("price", "", "New unit price")

	invoiceSetRatesCmd.Flags().String("tax", "", "New tax percentage")
	invoiceSetRatesCmd.Flags().String("discount", "", "New discount percentage")
}

// resolveInvoiceID accepts either a numeric ID or an invoice number.
func resolveInvoiceID(ctx context.Context, a *app, ref string) (int64, error) {
	if id, err := parseInvoiceID(ref); err == nil {
		return id, nil
	}
	inv, err := a.invoices.GetByNumber(ctx, ref)
	if err != nil {
		return 0, err
	}
	return inv.ID, nil
}

func runInvoiceCreate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("invoice-create")

	clientID, _ := cmd.Flags().GetInt64("client-id")
	clientName, _ := cmd.Flags().GetString("client-name")
	clientEmail, _ := cmd.Flags().GetString("client-email")
	clientGSTIN, _ := cmd.Flags().GetString("client-gstin")
	itemSpecs, _ := cmd.Flags().GetStringArray("item")
	serviceSpecs, _ := cmd.Flags().GetStringArray("service")
	taxFlag, _ := cmd.Flags().GetString("tax")
	discountFlag, _ := cmd.Flags().GetString("discount")
	termDays, _ := cmd.Flags().GetInt("term-days")
	notes, _ := cmd.Flags().GetString("notes")
	terms, _ := cmd.Flags().GetString("terms")

	header := invoice.Header{
		Client: models.ClientRef{ID: clientID, Name: clientName, Email: clientEmail, GSTIN: clientGSTIN},
		Notes:  notes,
		Terms:  terms,
	}
	var err error
	if header.TaxPercentage, err = optionalPercentage(cmd.Flags().Changed("tax"), taxFlag); err != nil {
		return err
	}
	if header.DiscountPercentage, err = optionalPercentage(cmd.Flags().Changed("discount"), discountFlag); err != nil {
		return err
	}
	if cmd.Flags().Changed("term-days") {
		header.PaymentTermDays = &termDays
	}

	log.Info().
		Int64("client_id", clientID).
		Int("items", len(itemSpecs)).
		Int("services", len(serviceSpecs)).
		Msg("Creating invoice")

	ctx, cancel := createContext(cmd, log)
	defer cancel()

	a, err := newApp(cmd, log)
	if err != nil {
		return err
	}
	defer a.Close()

	var inv *invoice.Invoice
	if len(serviceSpecs) > 0 {
		req := invoice.ServicesRequest{Header: header}
		for _, spec := range serviceSpecs {
			sa, err := parseServiceSpec(spec, clientID)
			if err != nil {
				return err
			}
			req.Assignments = append(req.Assignments, sa)
		}
		inv, err = a.invoices.CreateFromServices(ctx, req)
	} else {
		req := invoice.ManualRequest{Header: header}
		for _, spec := range itemSpecs {
			item, err := parseItemSpec(spec)
			if err != nil {
				return err
			}
			req.Items = append(req.Items, item)
		}
		inv, err = a.invoices.CreateManual(ctx, req)
	}
	if err != nil {
		return handleLedgerError(err, log)
	}

	return writeJSON(convertToInvoiceOutput(inv), log)
}

func runInvoiceShow(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("invoice-show")

	ctx, cancel := createContext(cmd, log)
	defer cancel()

	a, err := newApp(cmd, log)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := resolveInvoiceID(ctx, a, args[0])
	if err != nil {
		return handleLedgerError(err, log)
	}
	inv, err := a.invoices.Get(ctx, id)
	if err != nil {
		return handleLedgerError(err, log)
	}
	return writeJSON(convertToInvoiceOutput(inv), log)
}

func runInvoiceList(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("invoice-list")

	statusFlags, _ := cmd.Flags().GetStringArray("status")
	clientID, _ := cmd.Flags().GetInt64("client-id")
	onlyOverdue, _ := cmd.Flags().GetBool("overdue")

	filter := invoice.Filter{ClientID: clientID}
	for _, s := range statusFlags {
		st, err := invoice.ParseStatus(s)
		if err != nil {
			return handleLedgerError(err, log)
		}
		filter.Statuses = append(filter.Statuses, st)
	}

	ctx, cancel := createContext(cmd, log)
	defer cancel()

	a, err := newApp(cmd, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if onlyOverdue {
		due := invoice.OverdueFilter(a.today())
		filter.DueBefore = due.DueBefore
		filter.ExcludeStatuses = due.ExcludeStatuses
	}

	invs, err := a.invoices.List(ctx, filter)
	if err != nil {
		return handleLedgerError(err, log)
	}

	summaries := make([]InvoiceSummary, 0, len(invs))
	for _, inv := range invs {
		summaries = append(summaries, convertToSummary(inv))
	}
	log.Debug().Int("count", len(summaries)).Msg("Listed invoices")
	return writeJSON(summaries, log)
}

// runMutation resolves the invoice argument, applies fn and prints the result.
func runMutation(cmd *cobra.Command, ref, component string, fn func(ctx context.Context, a *app, id int64) (*invoice.Invoice, error)) error {
	log := logger.WithComponent(component)

	ctx, cancel := createContext(cmd, log)
	defer cancel()

	a, err := newApp(cmd, log)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := resolveInvoiceID(ctx, a, ref)
	if err != nil {
		return handleLedgerError(err, log)
	}
	inv, err := fn(ctx, a, id)
	if err != nil {
		return handleLedgerError(err, log)
	}
	if inv == nil {
		return nil
	}
	return writeJSON(convertToInvoiceOutput(inv), log)
}

func runInvoiceSend(cmd *cobra.Command, args []string) error {
	return runMutation(cmd, args[0], "invoice-send", func(ctx context.Context, a *app, id int64) (*invoice.Invoice, error) {
		return a.invoices.Send(ctx, id)
	})
}

func runInvoiceCancel(cmd *cobra.Command, args []string) error {
	reason, _ := cmd.Flags().GetString("reason")
	return runMutation(cmd, args[0], "invoice-cancel", func(ctx context.Context, a *app, id int64) (*invoice.Invoice, error) {
		return a.invoices.Cancel(ctx, id, reason)
	})
}

func runInvoiceDelete(cmd *cobra.Command, args []string) error {
	return runMutation(cmd, args[0], "invoice-delete", func(ctx context.Context, a *app, id int64) (*invoice.Invoice, error) {
		return nil, a.invoices.Delete(ctx, id)
	})
}

func runInvoiceAddItem(cmd *cobra.Command, args []string) error {
	item, err := parseItemSpec(args[1])
	if err != nil {
		return err
	}
	return runMutation(cmd, args[0], "invoice-add-item", func(ctx context.Context, a *app, id int64) (*invoice.Invoice, error) {
		_, inv, err := a.invoices.AddItem(ctx, id, item)
		return inv, err
	})
}

func runInvoiceUpdateItem(cmd *cobra.Command, args []string) error {
	itemID, err := parseItemID(args[1])
	if err != nil {
		return err
	}

	var u invoice.ItemUpdate
	if cmd.Flags().Changed("description") {
		desc, _ := cmd.Flags().GetString("description")
		u.Description = &desc
	}
	if cmd.Flags().Changed("quantity") {
		raw, _ := cmd.Flags().GetString("quantity")
		q, err := decimalFlag("quantity", raw)
		if err != nil {
			return err
		}
		u.Quantity = &q
	}
	if cmd.Flags().Changed("price") {
		raw, _ := cmd.Flags().GetString("price")
		p, err := moneyFlag("price", raw)
		if err != nil {
			return err
		}
		u.UnitPrice = &p
	}

	return runMutation(cmd, args[0], "invoice-update-item", func(ctx context.Context, a *app, id int64) (*invoice.Invoice, error) {
		return a.invoices.UpdateItem(ctx, id, itemID, u)
	})
}

func runInvoiceRemoveItem(cmd *cobra.Command, args []string) error {
	itemID, err := parseItemID(args[1])
	if err != nil {
		return err
	}
	return runMutation(cmd, args[0], "invoice-remove-item", func(ctx context.Context, a *app, id int64) (*invoice.Invoice, error) {
		return a.invoices.RemoveItem(ctx, id, itemID)
	})
}

func runInvoiceSetRates(cmd *cobra.Command, args []string) error {
	taxFlag, _ := cmd.Flags().GetString("tax")
	discountFlag, _ := cmd.Flags().GetString("discount")

	tax, err := optionalPercentage(cmd.Flags().Changed("tax"), taxFlag)
	if err != nil {
		return err
	}
	discount, err := optionalPercentage(cmd.Flags().Changed("discount"), discountFlag)
	if err != nil {
		return err
	}

	return runMutation(cmd, args[0], "invoice-set-rates", func(ctx context.Context, a *app, id int64) (*invoice.Invoice, error) {
		return a.invoices.SetRates(ctx, id, tax, discount)
	})
}

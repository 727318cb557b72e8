package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"invoicing/internal/invoice"
)

var paymentCmd = &cobra.Command{
	Use:   "payment",
	Short: "Record client payments",
}

var paymentRecordCmd = &cobra.Command{
	Use:   "record <invoice> <amount>",
	Short: "Record a full or partial payment against an invoice",
	Long: `Apply a payment to an invoice's outstanding balance.

The amount must be positive and may not exceed the outstanding balance.
When the balance reaches zero the invoice becomes PAID, otherwise
PARTIALLY_PAID. The payment is dated today (or --date).

Payment methods: CASH, CHEQUE, BANK_TRANSFER, UPI, CREDIT_CARD, DEBIT_CARD, ONLINE`,
	Example: `  invoicing payment record INV-2025-0001 4720.00 --method UPI --reference UTR2025031012
  invoicing payment record 12 1000 --method CHEQUE --reference 004512`,
	Args: cobra.ExactArgs(2),
	RunE: runPaymentRecord,
}

func init() {
	rootCmd.AddCommand(paymentCmd)
	paymentCmd.AddCommand(paymentRecordCmd)

	paymentRecordCmd.Flags().StringP("method", "m", string(invoice.PaymentBankTransfer), "Payment method")
	paymentRecordCmd.Flags().StringP("reference", "r", "", "Transaction ID, cheque number, etc.")
}

func runPaymentRecord(cmd *cobra.Command, args []string) error {
	methodFlag, _ := cmd.Flags().GetString("method")
	reference, _ := cmd.Flags().GetString("reference")

	amount, err := moneyFlag("amount", args[1])
	if err != nil {
		return err
	}
	method, err := invoice.ParsePaymentMethod(strings.ToUpper(methodFlag))
	if err != nil {
		return err
	}

	return runMutation(cmd, args[0], "payment-record", func(ctx context.Context, a *app, id int64) (*invoice.Invoice, error) {
		return a.payments.RecordPayment(ctx, id, amount, method, reference)
	})
}

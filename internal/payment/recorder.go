// Package payment records client payments against invoices.
package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"invoicing/internal/clock"
	"invoicing/internal/invoice"
	"invoicing/internal/logger"
	"invoicing/internal/money"
)

// Recorder applies payments and persists the result. The payment date is
// taken from the clock.
type Recorder struct {
	repo  invoice.Repository
	clock clock.Clock
	log   zerolog.Logger
}

func NewRecorder(repo invoice.Repository, clk clock.Clock) *Recorder {
	return &Recorder{
		repo:  repo,
		clock: clk,
		log:   logger.WithComponent("payment-recorder"),
	}
}

// RecordPayment applies amount to the invoice's outstanding balance.
//
// The amount must be positive and no larger than the outstanding balance.
// Paid and cancelled invoices reject payments. When the balance reaches
// zero the invoice becomes PAID, otherwise PARTIALLY_PAID.
func (r *Recorder) RecordPayment(ctx context.Context, invoiceID int64, amount money.Money, method invoice.PaymentMethod, reference string) (*invoice.Invoice, error) {
	const op = "payment.Recorder.RecordPayment"

	if !amount.IsPositive() {
		return nil, fmt.Errorf("%s: %w", op,
			invoice.NewValidationError("amount", amount.String(), "payment amount must be greater than zero"))
	}

	inv, err := r.repo.Get(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log := logger.WithInvoice(r.log, inv.ID, inv.Number)

	previous := inv.Status()
	p := invoice.Payment{
		ID:        uuid.New(),
		Amount:    amount,
		Method:    method,
		Reference: reference,
		Date:      clock.Today(r.clock),
	}
	if err := inv.ApplyPayment(p); err != nil {
		log.Warn().
			Err(err).
			Str("amount", amount.String()).
			Str("outstanding", inv.Outstanding().String()).
			Str("status", string(previous)).
			Msg("Payment rejected")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	inv.UpdatedAt = r.clock.Now().UTC()
	if err := r.repo.Save(ctx, inv); err != nil {
		return nil, fmt.Errorf("%s: save invoice %s: %w", op, inv.Number, err)
	}

	log.Info().
		Str("payment_id", p.ID.String()).
		Str("amount", amount.String()).
		Str("method", string(method)).
		Str("reference", reference).
		Str("from_status", string(previous)).
		Str("to_status", string(inv.Status())).
		Str("outstanding", inv.Outstanding().String()).
		Msg("Payment recorded")

	return inv, nil
}

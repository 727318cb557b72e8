package invoice

import (
	"time"

	"invoicing/internal/money"
	"invoicing/pkg/models"
)

// State is the flat persisted form of an invoice. Repositories convert
// between State and their own storage rows.
type State struct {
	ID          int64
	Number      string
	Client      models.ClientRef
	InvoiceDate time.Time
	DueDate     time.Time
	Notes       string
	Terms       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64

	Status             Status
	TaxPercentage      money.Percentage
	DiscountPercentage money.Percentage
	Items              []LineItem
	Payments           []Payment
	PaidAmount         money.Money

	// Stored totals. Rehydrate ignores them except to detect drift.
	Subtotal       money.Money
	DiscountAmount money.Money
	TaxAmount      money.Money
	TotalAmount    money.Money
}

// Snapshot captures the invoice, including derived totals and item amounts.
func (inv *Invoice) Snapshot() State {
	return State{
		ID:                 inv.ID,
		Number:             inv.Number,
		Client:             inv.Client,
		InvoiceDate:        inv.InvoiceDate,
		DueDate:            inv.DueDate,
		Notes:              inv.Notes,
		Terms:              inv.Terms,
		CreatedAt:          inv.CreatedAt,
		UpdatedAt:          inv.UpdatedAt,
		Version:            inv.Version,
		Status:             inv.status,
		TaxPercentage:      inv.taxPercentage,
		DiscountPercentage: inv.discountPercentage,
		Items:              inv.Items(),
		Payments:           inv.Payments(),
		PaidAmount:         inv.paidAmount,
		Subtotal:           inv.subtotal,
		DiscountAmount:     inv.discountAmount,
		TaxAmount:          inv.taxAmount,
		TotalAmount:        inv.totalAmount,
	}
}

// Rehydrate rebuilds an invoice from stored state. Totals are recomputed
// from the items; any disagreement with the stored totals is returned as
// drift for the caller to report.
func Rehydrate(s State) (*Invoice, []TotalsDrift, error) {
	if !s.Status.Valid() {
		return nil, nil, NewValidationError("status", string(s.Status), "unknown invoice status")
	}
	if s.PaidAmount.IsNegative() {
		return nil, nil, NewValidationError("paid_amount", s.PaidAmount.String(), "paid amount must not be negative")
	}

	items := make([]LineItem, len(s.Items))
	copy(items, s.Items)
	payments := make([]Payment, len(s.Payments))
	copy(payments, s.Payments)

	inv := &Invoice{
		ID:                 s.ID,
		Number:             s.Number,
		Client:             s.Client,
		InvoiceDate:        s.InvoiceDate,
		DueDate:            s.DueDate,
		Notes:              s.Notes,
		Terms:              s.Terms,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
		Version:            s.Version,
		status:             s.Status,
		taxPercentage:      s.TaxPercentage,
		discountPercentage: s.DiscountPercentage,
		items:              items,
		payments:           payments,
		paidAmount:         s.PaidAmount,
	}
	inv.sortItems()
	inv.recompute()

	return inv, CheckTotals(s, inv), nil
}

package invoice

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"invoicing/internal/money"
	"invoicing/pkg/models"
)

// Invoice is the aggregate root for a billing document.
//
// Descriptive fields are exported. Status, rates, items, payments and the
// derived totals are private and change only through methods, each of which
// recomputes totals before returning.
type Invoice struct {
	ID          int64 // Assigned by the repository on first save
	Number      string
	Client      models.ClientRef
	InvoiceDate time.Time
	DueDate     time.Time // Zero when the invoice has no due date
	Notes       string
	Terms       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64 // Optimistic lock token maintained by the repository

	status             Status
	taxPercentage      money.Percentage
	discountPercentage money.Percentage
	items              []LineItem
	payments           []Payment
	paidAmount         money.Money

	subtotal       money.Money
	discountAmount money.Money
	taxAmount      money.Money
	totalAmount    money.Money
}

// Params holds the header fields of a new invoice.
type Params struct {
	Number             string
	Client             models.ClientRef
	InvoiceDate        time.Time
	DueDate            time.Time
	TaxPercentage      money.Percentage
	DiscountPercentage money.Percentage
	Notes              string
	Terms              string
}

// New creates a DRAFT invoice with no items.
func New(p Params) (*Invoice, error) {
	if p.Number == "" {
		return nil, NewValidationError("number", p.Number, "invoice number is required")
	}
	if p.Client.ID == 0 {
		return nil, NewValidationError("client", p.Client.ID, "client is required")
	}
	if p.InvoiceDate.IsZero() {
		return nil, NewValidationError("invoice_date", p.InvoiceDate, "invoice date is required")
	}
	if !p.DueDate.IsZero() && p.DueDate.Before(p.InvoiceDate) {
		return nil, NewValidationError("due_date", p.DueDate.Format(time.DateOnly), "due date is before invoice date")
	}

	inv := &Invoice{
		Number:             p.Number,
		Client:             p.Client,
		InvoiceDate:        p.InvoiceDate,
		DueDate:            p.DueDate,
		Notes:              p.Notes,
		Terms:              p.Terms,
		status:             StatusDraft,
		taxPercentage:      p.TaxPercentage,
		discountPercentage: p.DiscountPercentage,
	}
	inv.recompute()
	return inv, nil
}

// recompute derives subtotal, discount, tax and total from the items and
// rates. Discount applies to the subtotal; tax applies after discount.
func (inv *Invoice) recompute() {
	subtotal := money.Zero()
	for i := range inv.items {
		inv.items[i].recalculate()
		subtotal = subtotal.Add(inv.items[i].amount)
	}
	inv.subtotal = subtotal
	inv.discountAmount = subtotal.ApplyPercentage(inv.discountPercentage)
	taxable := subtotal.Sub(inv.discountAmount)
	inv.taxAmount = taxable.ApplyPercentage(inv.taxPercentage)
	inv.totalAmount = taxable.Add(inv.taxAmount)
}

func (inv *Invoice) requireDraft(op string) error {
	if inv.status != StatusDraft {
		return newInvalidStateError(op, inv.status)
	}
	return nil
}

func (inv *Invoice) itemIndex(id uuid.UUID) (int, error) {
	for i := range inv.items {
		if inv.items[i].ID == id {
			return i, nil
		}
	}
	return -1, NewNotFoundError("line item", id)
}

// AddItem appends a line item. Only DRAFT invoices accept new items.
func (inv *Invoice) AddItem(in ItemInput) (LineItem, error) {
	if err := inv.requireDraft("add item to"); err != nil {
		return LineItem{}, err
	}
	if err := validateDescription(in.Description); err != nil {
		return LineItem{}, err
	}
	if err := validateQuantity(in.Quantity); err != nil {
		return LineItem{}, err
	}
	if err := validateUnitPrice(in.UnitPrice); err != nil {
		return LineItem{}, err
	}

	order := in.Order
	switch {
	case order < 0:
		return LineItem{}, NewValidationError("order", order, "order must be positive")
	case order == 0:
		order = inv.nextOrder()
	default:
		for _, existing := range inv.items {
			if existing.Order == order {
				return LineItem{}, NewValidationError("order", order, "order already used by another item")
			}
		}
	}

	item := LineItem{
		ID:           uuid.New(),
		Description:  in.Description,
		Quantity:     in.Quantity,
		UnitPrice:    in.UnitPrice,
		Order:        order,
		ServiceID:    in.ServiceID,
		AssignmentID: in.AssignmentID,
	}
	item.recalculate()

	inv.items = append(inv.items, item)
	inv.sortItems()
	inv.recompute()
	return item, nil
}

func (inv *Invoice) nextOrder() int {
	highest := 0
	for _, it := range inv.items {
		if it.Order > highest {
			highest = it.Order
		}
	}
	return highest + 1
}

func (inv *Invoice) sortItems() {
	sort.SliceStable(inv.items, func(i, j int) bool {
		return inv.items[i].Order < inv.items[j].Order
	})
}

// RemoveItem deletes a line item from a DRAFT invoice.
func (inv *Invoice) RemoveItem(id uuid.UUID) error {
	if err := inv.requireDraft("remove item from"); err != nil {
		return err
	}
	idx, err := inv.itemIndex(id)
	if err != nil {
		return err
	}
	inv.items = append(inv.items[:idx], inv.items[idx+1:]...)
	inv.recompute()
	return nil
}

// UpdateItem validates every field in u before changing anything, so a
// rejected update leaves the item untouched.
func (inv *Invoice) UpdateItem(id uuid.UUID, u ItemUpdate) error {
	if err := inv.requireDraft("update item on"); err != nil {
		return err
	}
	idx, err := inv.itemIndex(id)
	if err != nil {
		return err
	}
	if u.Description != nil {
		if err := validateDescription(*u.Description); err != nil {
			return err
		}
	}
	if u.Quantity != nil {
		if err := validateQuantity(*u.Quantity); err != nil {
			return err
		}
	}
	if u.UnitPrice != nil {
		if err := validateUnitPrice(*u.UnitPrice); err != nil {
			return err
		}
	}

	item := &inv.items[idx]
	if u.Description != nil {
		item.Description = *u.Description
	}
	if u.Quantity != nil {
		item.Quantity = *u.Quantity
	}
	if u.UnitPrice != nil {
		item.UnitPrice = *u.UnitPrice
	}
	inv.recompute()
	return nil
}

func (inv *Invoice) SetDescription(id uuid.UUID, description string) error {
	return inv.UpdateItem(id, ItemUpdate{Description: &description})
}

func (inv *Invoice) SetQuantity(id uuid.UUID, q decimal.Decimal) error {
	return inv.UpdateItem(id, ItemUpdate{Quantity: &q})
}

func (inv *Invoice) SetUnitPrice(id uuid.UUID, price money.Money) error {
	return inv.UpdateItem(id, ItemUpdate{UnitPrice: &price})
}

// SetTaxPercentage changes the tax rate of a DRAFT invoice.
func (inv *Invoice) SetTaxPercentage(p money.Percentage) error {
	if err := inv.requireDraft("change tax on"); err != nil {
		return err
	}
	inv.taxPercentage = p
	inv.recompute()
	return nil
}

// SetDiscountPercentage changes the discount rate of a DRAFT invoice.
func (inv *Invoice) SetDiscountPercentage(p money.Percentage) error {
	if err := inv.requireDraft("change discount on"); err != nil {
		return err
	}
	inv.discountPercentage = p
	inv.recompute()
	return nil
}

// Send moves a DRAFT invoice to SENT.
func (inv *Invoice) Send() error {
	next, err := sendTransition(inv.status)
	if err != nil {
		return err
	}
	inv.status = next
	return nil
}

// ApplyPayment records an installment against the outstanding balance.
// Overpayment is rejected; an exact settlement moves the invoice to PAID.
func (inv *Invoice) ApplyPayment(p Payment) error {
	if !p.Amount.IsPositive() {
		return NewValidationError("amount", p.Amount.String(), "payment amount must be greater than zero")
	}
	if !p.Amount.Equal(p.Amount.Round2()) {
		return NewValidationError("amount", p.Amount.Decimal().String(), "payment amount must be in whole cents")
	}
	if inv.status.IsTerminal() {
		return newInvalidStateError("record payment on", inv.status)
	}
	if !p.Method.Valid() {
		return NewValidationError("payment_method", string(p.Method), "unknown payment method")
	}
	if p.Date.IsZero() {
		return NewValidationError("payment_date", p.Date, "payment date is required")
	}
	outstanding := inv.Outstanding()
	if p.Amount.GreaterThan(outstanding) {
		return NewValidationError("amount", p.Amount.String(),
			"payment amount exceeds outstanding balance of "+outstanding.String())
	}

	paid := inv.paidAmount.Add(p.Amount)
	next, err := paymentTransition(inv.status, paid, inv.totalAmount)
	if err != nil {
		return err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	inv.payments = append(inv.payments, p)
	inv.paidAmount = paid
	inv.status = next
	return nil
}

// MarkOverdue flags an unpaid invoice whose due date is before today.
// It reports whether the status changed; an already OVERDUE invoice is left
// alone.
func (inv *Invoice) MarkOverdue(today time.Time) (bool, error) {
	if inv.DueDate.IsZero() || !inv.DueDate.Before(today) {
		return false, nil
	}
	next, changed, err := overdueTransition(inv.status)
	if err != nil || !changed {
		return false, err
	}
	inv.status = next
	return true, nil
}

// Cancel voids an unpaid invoice. A non-empty reason is appended to the notes.
func (inv *Invoice) Cancel(reason string) error {
	next, err := cancelTransition(inv.status)
	if err != nil {
		return err
	}
	inv.status = next
	if reason != "" {
		line := "Cancellation reason: " + reason
		if inv.Notes == "" {
			inv.Notes = line
		} else {
			inv.Notes = inv.Notes + "\n" + line
		}
	}
	return nil
}

func (inv *Invoice) Status() Status                       { return inv.status }
func (inv *Invoice) TaxPercentage() money.Percentage      { return inv.taxPercentage }
func (inv *Invoice) DiscountPercentage() money.Percentage { return inv.discountPercentage }
func (inv *Invoice) Subtotal() money.Money                { return inv.subtotal }
func (inv *Invoice) DiscountAmount() money.Money          { return inv.discountAmount }
func (inv *Invoice) TaxAmount() money.Money               { return inv.taxAmount }
func (inv *Invoice) TotalAmount() money.Money             { return inv.totalAmount }
func (inv *Invoice) PaidAmount() money.Money              { return inv.paidAmount }

// Outstanding is total minus paid.
func (inv *Invoice) Outstanding() money.Money {
	return inv.totalAmount.Sub(inv.paidAmount)
}

// Items returns a copy of the line items in order.
func (inv *Invoice) Items() []LineItem {
	out := make([]LineItem, len(inv.items))
	copy(out, inv.items)
	return out
}

// Item looks up a single line item.
func (inv *Invoice) Item(id uuid.UUID) (LineItem, error) {
	idx, err := inv.itemIndex(id)
	if err != nil {
		return LineItem{}, err
	}
	return inv.items[idx], nil
}

// Payments returns a copy of the payment history, oldest first.
func (inv *Invoice) Payments() []Payment {
	out := make([]Payment, len(inv.payments))
	copy(out, inv.payments)
	return out
}

// LastPayment returns the most recent payment, if any.
func (inv *Invoice) LastPayment() (Payment, bool) {
	if len(inv.payments) == 0 {
		return Payment{}, false
	}
	return inv.payments[len(inv.payments)-1], true
}

func (inv *Invoice) PaymentMethod() PaymentMethod {
	p, _ := inv.LastPayment()
	return p.Method
}

func (inv *Invoice) PaymentReference() string {
	p, _ := inv.LastPayment()
	return p.Reference
}

// PaymentDate is the zero time until a payment is recorded.
func (inv *Invoice) PaymentDate() time.Time {
	p, _ := inv.LastPayment()
	return p.Date
}

// IsOverdue reports whether the due date of an issued invoice has passed
// while money is still owed, regardless of whether the sweep already
// flagged it. Drafts are never overdue.
func (inv *Invoice) IsOverdue(today time.Time) bool {
	if inv.status == StatusDraft || inv.status.IsTerminal() || inv.DueDate.IsZero() {
		return false
	}
	return inv.DueDate.Before(today)
}

func (inv *Invoice) IsPartiallyPaid() bool {
	return inv.paidAmount.IsPositive() && inv.paidAmount.LessThan(inv.totalAmount)
}

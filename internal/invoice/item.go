package invoice

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"invoicing/internal/money"
)

// LineItem is one billable row of an invoice.
type LineItem struct {
	ID          uuid.UUID
	Description string
	Quantity    decimal.Decimal
	UnitPrice   money.Money
	Order       int // 1-based position, unique within the invoice

	// Catalogue references for items created from service assignments.
	// Zero for manually entered items.
	ServiceID    int64
	AssignmentID int64

	amount money.Money
}

// Amount is quantity x unit price rounded half-up to whole cents.
func (li LineItem) Amount() money.Money {
	return li.amount
}

func lineAmount(price money.Money, q decimal.Decimal) money.Money {
	return price.MulQuantity(q).Round2()
}

func (li *LineItem) recalculate() {
	li.amount = lineAmount(li.UnitPrice, li.Quantity)
}

// ItemInput carries the fields for a new line item. Order 0 means "append".
type ItemInput struct {
	Description  string
	Quantity     decimal.Decimal
	UnitPrice    money.Money
	Order        int
	ServiceID    int64
	AssignmentID int64
}

// ItemUpdate changes selected fields of an existing line item. Nil fields
// are left as they are.
type ItemUpdate struct {
	Description *string
	Quantity    *decimal.Decimal
	UnitPrice   *money.Money
}

func validateDescription(s string) error {
	if s == "" {
		return NewValidationError("description", s, "description is required")
	}
	return nil
}

func validateQuantity(q decimal.Decimal) error {
	if q.IsNegative() {
		return NewValidationError("quantity", q.String(), "quantity must not be negative")
	}
	return nil
}

func validateUnitPrice(p money.Money) error {
	if p.IsNegative() {
		return NewValidationError("unit_price", p.String(), "unit price must not be negative")
	}
	return nil
}

// RestoreItem attaches the amount read from storage to a persisted line item
// so that Rehydrate can compare it against the recomputed value.
func RestoreItem(li LineItem, storedAmount money.Money) LineItem {
	li.amount = storedAmount
	return li
}

var oneQuantity = decimal.NewFromInt(1)

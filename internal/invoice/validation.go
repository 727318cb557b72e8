package invoice

import (
	"invoicing/internal/money"
)

// TotalsDrift is a stored figure that disagrees with the value recomputed
// from the line items and rates.
type TotalsDrift struct {
	Field      string
	Stored     money.Money
	Recomputed money.Money
}

// CheckTotals compares stored totals against a freshly computed invoice.
// Drift means the stored row was written by something other than the
// aggregate; the recomputed values are authoritative.
func CheckTotals(stored State, inv *Invoice) []TotalsDrift {
	var drift []TotalsDrift
	check := func(field string, s, r money.Money) {
		if !s.Equal(r) {
			drift = append(drift, TotalsDrift{Field: field, Stored: s, Recomputed: r})
		}
	}

	check("subtotal", stored.Subtotal, inv.subtotal)
	check("discount_amount", stored.DiscountAmount, inv.discountAmount)
	check("tax_amount", stored.TaxAmount, inv.taxAmount)
	check("total_amount", stored.TotalAmount, inv.totalAmount)

	for _, it := range stored.Items {
		recomputed := lineAmount(it.UnitPrice, it.Quantity)
		if !it.amount.Equal(recomputed) {
			drift = append(drift, TotalsDrift{
				Field:      "item_amount:" + it.ID.String(),
				Stored:     it.amount,
				Recomputed: recomputed,
			})
		}
	}

	if len(inv.payments) > 0 {
		sum := money.Zero()
		for _, p := range inv.payments {
			sum = sum.Add(p.Amount)
		}
		check("paid_amount", inv.paidAmount, sum)
	}

	// Cross-check: total must equal subtotal - discount + tax
	expectedTotal := inv.subtotal.Sub(inv.discountAmount).Add(inv.taxAmount)
	check("total_consistency", inv.totalAmount, expectedTotal)

	return drift
}

// Package export renders the receivables register: one row per invoice
// with its totals, payments and overdue age.
package export

import (
	"time"

	"invoicing/internal/invoice"
	"invoicing/internal/money"
)

// Headers are the register column titles, in column order.
var Headers = []string{
	"Invoice No", "Client", "GSTIN", "Invoice Date", "Due Date", "Status",
	"Subtotal", "Discount", "Tax", "Total", "Paid", "Outstanding",
	"Last Payment", "Method", "Reference", "Days Overdue",
}

// RegisterRow is one line of the register.
type RegisterRow struct {
	Number      string
	Client      string
	GSTIN       string
	InvoiceDate time.Time
	DueDate     time.Time
	Status      string
	Subtotal    money.Money
	Discount    money.Money
	Tax         money.Money
	Total       money.Money
	Paid        money.Money
	Outstanding money.Money
	LastPayment time.Time
	Method      string
	Reference   string
	DaysOverdue int
}

// BuildRegister converts invoices to register rows. Days overdue is counted
// against today for invoices that are past due and still owe money.
func BuildRegister(invoices []*invoice.Invoice, today time.Time) []RegisterRow {
	rows := make([]RegisterRow, 0, len(invoices))
	for _, inv := range invoices {
		row := RegisterRow{
			Number:      inv.Number,
			Client:      inv.Client.Name,
			GSTIN:       inv.Client.GSTIN,
			InvoiceDate: inv.InvoiceDate,
			DueDate:     inv.DueDate,
			Status:      inv.Status().DisplayName(),
			Subtotal:    inv.Subtotal(),
			Discount:    inv.DiscountAmount(),
			Tax:         inv.TaxAmount(),
			Total:       inv.TotalAmount(),
			Paid:        inv.PaidAmount(),
			Outstanding: inv.Outstanding(),
		}
		if p, ok := inv.LastPayment(); ok {
			row.LastPayment = p.Date
			row.Method = p.Method.DisplayName()
			row.Reference = p.Reference
		}
		if inv.IsOverdue(today) {
			row.DaysOverdue = int(today.Sub(inv.DueDate).Hours() / 24)
		}
		rows = append(rows, row)
	}
	return rows
}

// Totals sums the money columns of a register.
func Totals(rows []RegisterRow) (total, paid, outstanding money.Money) {
	for _, r := range rows {
		total = total.Add(r.Total)
		paid = paid.Add(r.Paid)
		outstanding = outstanding.Add(r.Outstanding)
	}
	return total, paid, outstanding
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

// Values renders the row as spreadsheet cells. Amounts are exact decimal
// strings with two fractional digits.
func (r RegisterRow) Values() []interface{} {
	return []interface{}{
		r.Number,                  // A
		r.Client,                  // B
		r.GSTIN,                   // C
		formatDate(r.InvoiceDate), // D
		formatDate(r.DueDate),     // E
		r.Status,                  // F
		r.Subtotal.String(),       // G
		r.Discount.String(),       // H
		r.Tax.String(),            // I
		r.Total.String(),          // J
		r.Paid.String(),           // K
		r.Outstanding.String(),    // L
		formatDate(r.LastPayment), // M
		r.Method,                  // N
		r.Reference,               // O
		r.DaysOverdue,             // P
	}
}

// firstAmountColumn is the 1-based column of Subtotal; amounts() fills
// G..L in order.
const firstAmountColumn = 7

func (r RegisterRow) amounts() []money.Money {
	return []money.Money{r.Subtotal, r.Discount, r.Tax, r.Total, r.Paid, r.Outstanding}
}

// amountCell converts an amount for a numeric spreadsheet cell.
func amountCell(m money.Money) float64 {
	return m.Decimal().InexactFloat64()
}

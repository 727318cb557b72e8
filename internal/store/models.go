package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"invoicing/internal/invoice"
	"invoicing/internal/money"
	"invoicing/pkg/models"
)

// Amounts are stored as decimal text so that values round-trip exactly.

type invoiceRow struct {
	ID                 int64           `gorm:"primaryKey;autoIncrement"`
	Number             string          `gorm:"type:text;not null;uniqueIndex"`
	ClientID           int64           `gorm:"not null;index"`
	ClientName         string          `gorm:"type:text;not null"`
	ClientEmail        string          `gorm:"type:text"`
	ClientGSTIN        string          `gorm:"column:client_gstin;type:text"`
	InvoiceDate        time.Time       `gorm:"not null"`
	DueDate            *time.Time      `gorm:"index"`
	Status             string          `gorm:"type:text;not null;index"`
	TaxPercentage      decimal.Decimal `gorm:"type:text;not null"`
	DiscountPercentage decimal.Decimal `gorm:"type:text;not null"`
	Subtotal           decimal.Decimal `gorm:"type:text;not null"`
	DiscountAmount     decimal.Decimal `gorm:"type:text;not null"`
	TaxAmount          decimal.Decimal `gorm:"type:text;not null"`
	TotalAmount        decimal.Decimal `gorm:"type:text;not null"`
	PaidAmount         decimal.Decimal `gorm:"type:text;not null"`
	Notes              string          `gorm:"type:text"`
	Terms              string          `gorm:"type:text"`
	Version            int64           `gorm:"not null"`
	CreatedAt          time.Time       `gorm:"not null;autoCreateTime:false"`
	UpdatedAt          time.Time       `gorm:"not null;autoUpdateTime:false"`
}

func (invoiceRow) TableName() string { return "invoices" }

type lineItemRow struct {
	ID           uuid.UUID       `gorm:"type:text;primaryKey"`
	InvoiceID    int64           `gorm:"not null;index"`
	Description  string          `gorm:"type:text;not null"`
	Quantity     decimal.Decimal `gorm:"type:text;not null"`
	UnitPrice    decimal.Decimal `gorm:"type:text;not null"`
	Amount       decimal.Decimal `gorm:"type:text;not null"`
	ItemOrder    int             `gorm:"not null"`
	ServiceID    int64
	AssignmentID int64
}

func (lineItemRow) TableName() string { return "invoice_items" }

type paymentRow struct {
	ID        uuid.UUID       `gorm:"type:text;primaryKey"`
	InvoiceID int64           `gorm:"not null;index"`
	Seq       int             `gorm:"not null"`
	Amount    decimal.Decimal `gorm:"type:text;not null"`
	Method    string          `gorm:"type:text;not null"`
	Reference string          `gorm:"type:text"`
	PaidOn    time.Time       `gorm:"not null"`
}

func (paymentRow) TableName() string { return "invoice_payments" }

func toRows(s invoice.State) (invoiceRow, []lineItemRow, []paymentRow) {
	row := invoiceRow{
		ID:                 s.ID,
		Number:             s.Number,
		ClientID:           s.Client.ID,
		ClientName:         s.Client.Name,
		ClientEmail:        s.Client.Email,
		ClientGSTIN:        s.Client.GSTIN,
		InvoiceDate:        s.InvoiceDate,
		Status:             string(s.Status),
		TaxPercentage:      s.TaxPercentage.Decimal(),
		DiscountPercentage: s.DiscountPercentage.Decimal(),
		Subtotal:           s.Subtotal.Decimal(),
		DiscountAmount:     s.DiscountAmount.Decimal(),
		TaxAmount:          s.TaxAmount.Decimal(),
		TotalAmount:        s.TotalAmount.Decimal(),
		PaidAmount:         s.PaidAmount.Decimal(),
		Notes:              s.Notes,
		Terms:              s.Terms,
		Version:            s.Version,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
	if !s.DueDate.IsZero() {
		due := s.DueDate
		row.DueDate = &due
	}

	items := make([]lineItemRow, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, lineItemRow{
			ID:           it.ID,
			InvoiceID:    s.ID,
			Description:  it.Description,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice.Decimal(),
			Amount:       it.Amount().Decimal(),
			ItemOrder:    it.Order,
			ServiceID:    it.ServiceID,
			AssignmentID: it.AssignmentID,
		})
	}

	payments := make([]paymentRow, 0, len(s.Payments))
	for i, p := range s.Payments {
		payments = append(payments, paymentRow{
			ID:        p.ID,
			InvoiceID: s.ID,
			Seq:       i + 1,
			Amount:    p.Amount.Decimal(),
			Method:    string(p.Method),
			Reference: p.Reference,
			PaidOn:    p.Date,
		})
	}
	return row, items, payments
}

// updates lists the columns written when an existing invoice is saved.
func (row invoiceRow) updates() map[string]interface{} {
	return map[string]interface{}{
		"number":              row.Number,
		"client_id":           row.ClientID,
		"client_name":         row.ClientName,
		"client_email":        row.ClientEmail,
		"client_gstin":        row.ClientGSTIN,
		"invoice_date":        row.InvoiceDate,
		"due_date":            row.DueDate,
		"status":              row.Status,
		"tax_percentage":      row.TaxPercentage,
		"discount_percentage": row.DiscountPercentage,
		"subtotal":            row.Subtotal,
		"discount_amount":     row.DiscountAmount,
		"tax_amount":          row.TaxAmount,
		"total_amount":        row.TotalAmount,
		"paid_amount":         row.PaidAmount,
		"notes":               row.Notes,
		"terms":               row.Terms,
		"version":             row.Version,
		"updated_at":          row.UpdatedAt,
	}
}

func (row invoiceRow) toState(items []lineItemRow, payments []paymentRow) (invoice.State, error) {
	tax, err := money.NewPercentage(row.TaxPercentage)
	if err != nil {
		return invoice.State{}, err
	}
	discount, err := money.NewPercentage(row.DiscountPercentage)
	if err != nil {
		return invoice.State{}, err
	}

	s := invoice.State{
		ID:     row.ID,
		Number: row.Number,
		Client: models.ClientRef{
			ID:    row.ClientID,
			Name:  row.ClientName,
			Email: row.ClientEmail,
			GSTIN: row.ClientGSTIN,
		},
		InvoiceDate:        row.InvoiceDate.UTC(),
		Notes:              row.Notes,
		Terms:              row.Terms,
		CreatedAt:          row.CreatedAt.UTC(),
		UpdatedAt:          row.UpdatedAt.UTC(),
		Version:            row.Version,
		Status:             invoice.Status(row.Status),
		TaxPercentage:      tax,
		DiscountPercentage: discount,
		PaidAmount:         money.FromDecimal(row.PaidAmount),
		Subtotal:           money.FromDecimal(row.Subtotal),
		DiscountAmount:     money.FromDecimal(row.DiscountAmount),
		TaxAmount:          money.FromDecimal(row.TaxAmount),
		TotalAmount:        money.FromDecimal(row.TotalAmount),
	}
	if row.DueDate != nil {
		s.DueDate = row.DueDate.UTC()
	}

	for _, it := range items {
		s.Items = append(s.Items, invoice.RestoreItem(invoice.LineItem{
			ID:           it.ID,
			Description:  it.Description,
			Quantity:     it.Quantity,
			UnitPrice:    money.FromDecimal(it.UnitPrice),
			Order:        it.ItemOrder,
			ServiceID:    it.ServiceID,
			AssignmentID: it.AssignmentID,
		}, money.FromDecimal(it.Amount)))
	}
	for _, p := range payments {
		s.Payments = append(s.Payments, invoice.Payment{
			ID:        p.ID,
			Amount:    money.FromDecimal(p.Amount),
			Method:    invoice.PaymentMethod(p.Method),
			Reference: p.Reference,
			Date:      p.PaidOn.UTC(),
		})
	}
	return s, nil
}

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"invoicing/internal/invoice"
)

// InvoiceOutput is the JSON form of an invoice printed by the CLI.
// Amounts are decimal strings so that no precision is lost.
type InvoiceOutput struct {
	ID                 int64           `json:"id"`
	Number             string          `json:"number"`
	Status             string          `json:"status"`
	StatusLabel        string          `json:"status_label"`
	Client             ClientOutput    `json:"client"`
	InvoiceDate        string          `json:"invoice_date"`
	DueDate            string          `json:"due_date,omitempty"`
	TaxPercentage      string          `json:"tax_percentage"`
	DiscountPercentage string          `json:"discount_percentage"`
	Subtotal           string          `json:"subtotal"`
	DiscountAmount     string          `json:"discount_amount"`
	TaxAmount          string          `json:"tax_amount"`
	TotalAmount        string          `json:"total_amount"`
	PaidAmount         string          `json:"paid_amount"`
	Outstanding        string          `json:"outstanding"`
	Items              []ItemOutput    `json:"items"`
	Payments           []PaymentOutput `json:"payments,omitempty"`
	Notes              string          `json:"notes,omitempty"`
	Terms              string          `json:"terms,omitempty"`
	Version            int64           `json:"version"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

type ClientOutput struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	GSTIN string `json:"gstin,omitempty"`
}

type ItemOutput struct {
	ID           string `json:"id"`
	Order        int    `json:"order"`
	Description  string `json:"description"`
	Quantity     string `json:"quantity"`
	UnitPrice    string `json:"unit_price"`
	Amount       string `json:"amount"`
	ServiceID    int64  `json:"service_id,omitempty"`
	AssignmentID int64  `json:"assignment_id,omitempty"`
}

type PaymentOutput struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Amount    string `json:"amount"`
	Method    string `json:"method"`
	Reference string `json:"reference,omitempty"`
}

// InvoiceSummary is one line of `invoice list`.
type InvoiceSummary struct {
	ID          int64  `json:"id"`
	Number      string `json:"number"`
	Client      string `json:"client"`
	Status      string `json:"status"`
	DueDate     string `json:"due_date,omitempty"`
	Total       string `json:"total"`
	Outstanding string `json:"outstanding"`
}

func dateString(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

func convertToInvoiceOutput(inv *invoice.Invoice) InvoiceOutput {
	out := InvoiceOutput{
		ID:          inv.ID,
		Number:      inv.Number,
		Status:      string(inv.Status()),
		StatusLabel: inv.Status().DisplayName(),
		Client: ClientOutput{
			ID:    inv.Client.ID,
			Name:  inv.Client.Name,
			Email: inv.Client.Email,
			GSTIN: inv.Client.GSTIN,
		},
		InvoiceDate:        dateString(inv.InvoiceDate),
		DueDate:            dateString(inv.DueDate),
		TaxPercentage:      inv.TaxPercentage().String(),
		DiscountPercentage: inv.DiscountPercentage().String(),
		Subtotal:           inv.Subtotal().String(),
		DiscountAmount:     inv.DiscountAmount().String(),
		TaxAmount:          inv.TaxAmount().String(),
		TotalAmount:        inv.TotalAmount().String(),
		PaidAmount:         inv.PaidAmount().String(),
		Outstanding:        inv.Outstanding().String(),
		Notes:              inv.Notes,
		Terms:              inv.Terms,
		Version:            inv.Version,
		CreatedAt:          inv.CreatedAt,
		UpdatedAt:          inv.UpdatedAt,
		Items:              []ItemOutput{},
	}
	for _, it := range inv.Items() {
		out.Items = append(out.Items, ItemOutput{
			ID:           it.ID.String(),
			Order:        it.Order,
			Description:  it.Description,
			Quantity:     it.Quantity.String(),
			UnitPrice:    it.UnitPrice.String(),
			Amount:       it.Amount().Decimal().String(),
			ServiceID:    it.ServiceID,
			AssignmentID: it.AssignmentID,
		})
	}
	for _, p := range inv.Payments() {
		out.Payments = append(out.Payments, PaymentOutput{
			ID:        p.ID.String(),
			Date:      dateString(p.Date),
			Amount:    p.Amount.String(),
			Method:    p.Method.DisplayName(),
			Reference: p.Reference,
		})
	}
	return out
}

func convertToSummary(inv *invoice.Invoice) InvoiceSummary {
	return InvoiceSummary{
		ID:          inv.ID,
		Number:      inv.Number,
		Client:      inv.Client.Name,
		Status:      string(inv.Status()),
		DueDate:     dateString(inv.DueDate),
		Total:       inv.TotalAmount().String(),
		Outstanding: inv.Outstanding().String(),
	}
}

// writeJSON pretty-prints v to stdout.
func writeJSON(v interface{}, log zerolog.Logger) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal output to JSON")
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(jsonData))
	return nil
}

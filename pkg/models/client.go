package models

import "github.com/shopspring/decimal"

// ClientRef identifies the client an invoice is billed to. Client records are
// owned by the practice-management side; the ledger only keeps this reference.
type ClientRef struct {
	ID    int64  // Client primary key in the practice database
	Name  string // Display name printed on the invoice
	Email string // Billing contact (optional)
	GSTIN string // Tax registration number (optional)
}

// ServiceAssignment is a billable service assigned to a client with an agreed
// price, e.g. "GST Return Filing" quoted at 2500.00.
type ServiceAssignment struct {
	ID          int64           // Assignment primary key
	ClientID    int64           // Client the service is assigned to
	ServiceID   int64           // Catalogue service primary key
	ServiceName string          // Catalogue service name, used as the line description
	QuotedPrice decimal.Decimal // Agreed unit price
}

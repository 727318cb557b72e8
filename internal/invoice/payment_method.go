package invoice

import (
	"time"

	"github.com/google/uuid"

	"invoicing/internal/money"
)

// PaymentMethod is how a client settled (part of) an invoice.
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "CASH"
	PaymentCheque       PaymentMethod = "CHEQUE"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentUPI          PaymentMethod = "UPI"
	PaymentCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentDebitCard    PaymentMethod = "DEBIT_CARD"
	PaymentOnline       PaymentMethod = "ONLINE"
)

// ParsePaymentMethod accepts the stored form, e.g. "BANK_TRANSFER".
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(s)
	if !m.Valid() {
		return "", NewValidationError("payment_method", s, "unknown payment method")
	}
	return m, nil
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCheque, PaymentBankTransfer, PaymentUPI,
		PaymentCreditCard, PaymentDebitCard, PaymentOnline:
		return true
	}
	return false
}

func (m PaymentMethod) DisplayName() string {
	switch m {
	case PaymentCash:
		return "Cash"
	case PaymentCheque:
		return "Cheque"
	case PaymentBankTransfer:
		return "Bank Transfer"
	case PaymentUPI:
		return "UPI"
	case PaymentCreditCard:
		return "Credit Card"
	case PaymentDebitCard:
		return "Debit Card"
	case PaymentOnline:
		return "Online Payment"
	}
	return string(m)
}

// Payment is one installment applied to an invoice.
type Payment struct {
	ID        uuid.UUID
	Amount    money.Money
	Method    PaymentMethod
	Reference string    // Transaction ID, cheque number, etc.
	Date      time.Time // Calendar date the payment was recorded
}

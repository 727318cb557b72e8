package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"invoicing/internal/invoice"
	"invoicing/internal/money"
	"invoicing/pkg/models"
)

// parseItemSpec reads "description|quantity|unit price". The description
// may itself contain '|'; quantity and price are taken from the right.
func parseItemSpec(spec string) (invoice.ItemInput, error) {
	idx := strings.LastIndex(spec, "|")
	if idx < 0 {
		return invoice.ItemInput{}, fmt.Errorf("item %q: expected description|quantity|price", spec)
	}
	rest, priceStr := spec[:idx], strings.TrimSpace(spec[idx+1:])
	idx = strings.LastIndex(rest, "|")
	if idx < 0 {
		return invoice.ItemInput{}, fmt.Errorf("item %q: expected description|quantity|price", spec)
	}
	desc, qtyStr := strings.TrimSpace(rest[:idx]), strings.TrimSpace(rest[idx+1:])

	qty, err := decimal.NewFromString(qtyStr)
	if err != nil {
		return invoice.ItemInput{}, fmt.Errorf("item %q: invalid quantity: %w", spec, err)
	}
	price, err := money.FromString(priceStr)
	if err != nil {
		return invoice.ItemInput{}, fmt.Errorf("item %q: %w", spec, err)
	}
	return invoice.ItemInput{Description: desc, Quantity: qty, UnitPrice: price}, nil
}

// parseServiceSpec reads "assignment id|service id|service name|quoted price"
// for a service assigned to clientID.
func parseServiceSpec(spec string, clientID int64) (models.ServiceAssignment, error) {
	parts := strings.Split(spec, "|")
	if len(parts) != 4 {
		return models.ServiceAssignment{}, fmt.Errorf("service %q: expected assignment|service|name|price", spec)
	}
	assignmentID, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return models.ServiceAssignment{}, fmt.Errorf("service %q: invalid assignment id: %w", spec, err)
	}
	serviceID, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return models.ServiceAssignment{}, fmt.Errorf("service %q: invalid service id: %w", spec, err)
	}
	price, err := decimal.NewFromString(strings.TrimSpace(parts[3]))
	if err != nil {
		return models.ServiceAssignment{}, fmt.Errorf("service %q: invalid price: %w", spec, err)
	}
	return models.ServiceAssignment{
		ID:          assignmentID,
		ClientID:    clientID,
		ServiceID:   serviceID,
		ServiceName: strings.TrimSpace(parts[2]),
		QuotedPrice: price,
	}, nil
}

// parseInvoiceID accepts a positive numeric ID.
func parseInvoiceID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid invoice id %q", s)
	}
	return id, nil
}

func parseItemID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid item id %q: %w", s, err)
	}
	return id, nil
}

// optionalPercentage returns nil when the flag was not set.
func optionalPercentage(changed bool, value string) (*money.Percentage, error) {
	if !changed {
		return nil, nil
	}
	p, err := money.ParsePercentage(value)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func decimalFlag(name, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid --%s %q: %w", name, raw, err)
	}
	return d, nil
}

func moneyFlag(name, raw string) (money.Money, error) {
	m, err := money.FromString(raw)
	if err != nil {
		return money.Money{}, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return m, nil
}

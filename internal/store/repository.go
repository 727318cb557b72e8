// Package store persists invoices in SQLite through gorm.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"invoicing/internal/invoice"
	"invoicing/internal/logger"
)

// Open connects to the SQLite database at path and migrates the schema.
// ":memory:" opens a private in-memory database.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open ledger database %s: %w", path, err)
	}

	if path == ":memory:" {
		// Each pooled connection would otherwise get its own empty database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&invoiceRow{}, &lineItemRow{}, &paymentRow{}); err != nil {
		return nil, fmt.Errorf("migrate ledger schema: %w", err)
	}
	return db, nil
}

// Repository implements invoice.Repository.
type Repository struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:  db,
		log: logger.WithComponent("store"),
	}
}

var _ invoice.Repository = (*Repository)(nil)

func (r *Repository) Get(ctx context.Context, id int64) (*invoice.Invoice, error) {
	var row invoiceRow
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invoice.NewNotFoundError("invoice", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load invoice %d: %w", id, err)
	}
	return r.hydrateOne(ctx, row)
}

func (r *Repository) GetByNumber(ctx context.Context, number string) (*invoice.Invoice, error) {
	var row invoiceRow
	err := r.db.WithContext(ctx).Where("number = ?", number).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invoice.NewNotFoundError("invoice", number)
	}
	if err != nil {
		return nil, fmt.Errorf("load invoice %s: %w", number, err)
	}
	return r.hydrateOne(ctx, row)
}

// Latest returns the invoice with the highest ID, i.e. the most recently created.
func (r *Repository) Latest(ctx context.Context) (*invoice.Invoice, error) {
	var row invoiceRow
	err := r.db.WithContext(ctx).Order("id DESC").Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invoice.NewNotFoundError("invoice", "latest")
	}
	if err != nil {
		return nil, fmt.Errorf("load latest invoice: %w", err)
	}
	return r.hydrateOne(ctx, row)
}

func (r *Repository) Find(ctx context.Context, f invoice.Filter) ([]*invoice.Invoice, error) {
	q := r.db.WithContext(ctx).Model(&invoiceRow{})
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", statusStrings(f.Statuses))
	}
	if len(f.ExcludeStatuses) > 0 {
		q = q.Where("status NOT IN ?", statusStrings(f.ExcludeStatuses))
	}
	if f.ClientID != 0 {
		q = q.Where("client_id = ?", f.ClientID)
	}
	if !f.DueBefore.IsZero() {
		q = q.Where("due_date IS NOT NULL AND due_date < ?", f.DueBefore)
	}

	var rows []invoiceRow
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find invoices: %w", err)
	}
	return r.hydrate(ctx, rows)
}

func statusStrings(statuses []invoice.Status) []string {
	return lo.Map(statuses, func(s invoice.Status, _ int) string { return string(s) })
}

func (r *Repository) hydrateOne(ctx context.Context, row invoiceRow) (*invoice.Invoice, error) {
	invs, err := r.hydrate(ctx, []invoiceRow{row})
	if err != nil {
		return nil, err
	}
	return invs[0], nil
}

// hydrate loads children for all rows in two queries and rebuilds the
// aggregates.
func (r *Repository) hydrate(ctx context.Context, rows []invoiceRow) ([]*invoice.Invoice, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	ids := lo.Map(rows, func(row invoiceRow, _ int) int64 { return row.ID })

	var items []lineItemRow
	if err := r.db.WithContext(ctx).Where("invoice_id IN ?", ids).Order("invoice_id, item_order").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("load line items: %w", err)
	}
	var payments []paymentRow
	if err := r.db.WithContext(ctx).Where("invoice_id IN ?", ids).Order("invoice_id, seq").Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("load payments: %w", err)
	}

	itemsBy := lo.GroupBy(items, func(it lineItemRow) int64 { return it.InvoiceID })
	paymentsBy := lo.GroupBy(payments, func(p paymentRow) int64 { return p.InvoiceID })

	out := make([]*invoice.Invoice, 0, len(rows))
	for _, row := range rows {
		state, err := row.toState(itemsBy[row.ID], paymentsBy[row.ID])
		if err != nil {
			return nil, fmt.Errorf("decode invoice %s: %w", row.Number, err)
		}
		inv, drift, err := invoice.Rehydrate(state)
		if err != nil {
			return nil, fmt.Errorf("decode invoice %s: %w", row.Number, err)
		}
		for _, d := range drift {
			r.log.Warn().
				Int64("invoice_id", row.ID).
				Str("number", row.Number).
				Str("field", d.Field).
				Str("stored", d.Stored.String()).
				Str("recomputed", d.Recomputed.String()).
				Msg("Stored total disagrees with recomputed value")
		}
		out = append(out, inv)
	}
	return out, nil
}

// Save writes the invoice with its items and payments in one transaction.
func (r *Repository) Save(ctx context.Context, inv *invoice.Invoice) error {
	const op = "store.Repository.Save"

	row, items, payments := toRows(inv.Snapshot())
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if row.ID == 0 {
			row.Version = 1
			if err := tx.Create(&row).Error; err != nil {
				return translate(err, row.Number)
			}
		} else {
			expected := row.Version
			row.Version = expected + 1
			res := tx.Model(&invoiceRow{}).
				Where("id = ? AND version = ?", row.ID, expected).
				Updates(row.updates())
			if res.Error != nil {
				return translate(res.Error, row.Number)
			}
			if res.RowsAffected == 0 {
				var count int64
				if err := tx.Model(&invoiceRow{}).Where("id = ?", row.ID).Count(&count).Error; err != nil {
					return err
				}
				if count == 0 {
					return invoice.NewNotFoundError("invoice", row.ID)
				}
				return invoice.ErrConcurrentUpdate
			}
			if err := tx.Where("invoice_id = ?", row.ID).Delete(&lineItemRow{}).Error; err != nil {
				return err
			}
			if err := tx.Where("invoice_id = ?", row.ID).Delete(&paymentRow{}).Error; err != nil {
				return err
			}
		}

		for i := range items {
			items[i].InvoiceID = row.ID
		}
		for i := range payments {
			payments[i].InvoiceID = row.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		if len(payments) > 0 {
			if err := tx.Create(&payments).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: invoice %s: %w", op, inv.Number, err)
	}

	inv.ID = row.ID
	inv.Version = row.Version

	r.log.Debug().
		Int64("invoice_id", inv.ID).
		Str("number", inv.Number).
		Int64("version", inv.Version).
		Str("status", string(inv.Status())).
		Msg("Invoice saved")
	return nil
}

// Delete removes an invoice and its children.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", id).Delete(&lineItemRow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", id).Delete(&paymentRow{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&invoiceRow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return invoice.NewNotFoundError("invoice", id)
		}
		return nil
	})
}

func translate(err error, number string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &invoice.DuplicateNumberError{Number: number}
	}
	return err
}

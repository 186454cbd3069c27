// Package seed loads catalogue, sales and event CSV exports into the store database.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/repository"
	"github.com/rs/zerolog/log"
)

const defaultLeadTimeDays = 3

// Kind names a seed file type
type Kind string

const (
	KindProducts Kind = "products"
	KindSales    Kind = "sales"
	KindEvents   Kind = "events"
)

type Loader struct {
	repo repository.CatalogRepository
	loc  *time.Location
	ids  map[string]int64
}

func NewLoader(repo repository.CatalogRepository, loc *time.Location) *Loader {
	if loc == nil {
		loc = time.UTC
	}
	return &Loader{repo: repo, loc: loc, ids: make(map[string]int64)}
}

// LoadFile opens path and loads it as kind
func (l *Loader) LoadFile(ctx context.Context, kind Kind, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var n int
	switch kind {
	case KindProducts:
		n, err = l.LoadProducts(ctx, file)
	case KindSales:
		n, err = l.LoadSales(ctx, file)
	case KindEvents:
		n, err = l.LoadEvents(ctx, file)
	default:
		return 0, fmt.Errorf("unknown seed kind: %s", kind)
	}
	if err != nil {
		return n, fmt.Errorf("%s: %w", path, err)
	}

	log.Info().Str("kind", string(kind)).Str("file", path).Int("rows", n).Msg("seed: file loaded")
	return n, nil
}

// LoadProducts upserts one product with its inventory record per row
func (l *Loader) LoadProducts(ctx context.Context, r io.Reader) (int, error) {
	t, err := newTable(r, "barcode", "name", "category")
	if err != nil {
		return 0, err
	}

	count := 0
	for {
		row, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return count, err
		}

		pi, err := parseProduct(row)
		if err != nil {
			return count, err
		}

		id, err := l.repo.UpsertProduct(ctx, pi)
		if err != nil {
			return count, row.errorf("%w", err)
		}
		l.ids[pi.Barcode] = id
		count++
	}

	return count, nil
}

func parseProduct(row csvRow) (domain.ProductInventory, error) {
	var pi domain.ProductInventory

	pi.Barcode = row.str("barcode")
	pi.Name = row.str("name")
	if pi.Barcode == "" || pi.Name == "" {
		return pi, row.errorf("barcode and name are required")
	}
	pi.Brand = row.str("brand")

	category, ok := domain.ParseCategory(row.str("category"))
	if !ok {
		return pi, row.errorf("unknown category %q", row.str("category"))
	}
	pi.Category = category

	var err error
	if pi.CostPrice, err = row.money("cost_price"); err != nil {
		return pi, err
	}
	if pi.RetailPrice, err = row.money("retail_price"); err != nil {
		return pi, err
	}
	if pi.IsArchived, err = row.boolean("is_archived", false); err != nil {
		return pi, err
	}
	if pi.CurrentStock, err = row.integer("current_stock", 0); err != nil {
		return pi, err
	}
	if pi.CurrentStock < 0 {
		return pi, row.errorf("current_stock cannot be negative")
	}
	if pi.ReorderLevel, err = row.integer("reorder_level", 0); err != nil {
		return pi, err
	}
	if pi.LeadTimeDays, err = row.integer("lead_time_days", defaultLeadTimeDays); err != nil {
		return pi, err
	}
	if pi.AutoReorder, err = row.boolean("auto_reorder", false); err != nil {
		return pi, err
	}

	return pi, nil
}

func (l *Loader) productID(ctx context.Context, barcode string) (int64, error) {
	if id, ok := l.ids[barcode]; ok {
		return id, nil
	}
	id, err := l.repo.ProductIDByBarcode(ctx, barcode)
	if err != nil {
		return 0, err
	}
	l.ids[barcode] = id
	return id, nil
}

// LoadSales groups rows by transaction_ref and inserts one transaction per group.
// Rows without a status count as completed.
func (l *Loader) LoadSales(ctx context.Context, r io.Reader) (int, error) {
	t, err := newTable(r, "transaction_ref", "completed_at", "barcode", "quantity", "unit_price")
	if err != nil {
		return 0, err
	}

	var order []string
	txns := make(map[string]*domain.Transaction)

	for {
		row, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}

		ref := row.str("transaction_ref")
		if ref == "" {
			return 0, row.errorf("transaction_ref is required")
		}

		txn, ok := txns[ref]
		if !ok {
			txn, err = l.parseTransaction(row)
			if err != nil {
				return 0, err
			}
			txns[ref] = txn
			order = append(order, ref)
		}

		item, err := l.parseItem(ctx, row)
		if err != nil {
			return 0, err
		}
		txn.Items = append(txn.Items, item)
	}

	count := 0
	for _, ref := range order {
		if err := l.repo.InsertTransaction(ctx, txns[ref]); err != nil {
			return count, fmt.Errorf("transaction %s: %w", ref, err)
		}
		count++
	}

	return count, nil
}

func (l *Loader) parseTransaction(row csvRow) (*domain.Transaction, error) {
	status := domain.TransactionStatus(strings.ToUpper(row.str("status")))
	switch status {
	case "":
		status = domain.TransactionCompleted
	case domain.TransactionCompleted, domain.TransactionPending, domain.TransactionVoided:
	default:
		return nil, row.errorf("unknown status %q", row.str("status"))
	}

	completedAt, err := row.timestamp("completed_at", l.loc)
	if err != nil {
		return nil, err
	}
	if status == domain.TransactionCompleted && completedAt == nil {
		return nil, row.errorf("completed transactions need completed_at")
	}

	return &domain.Transaction{Status: status, CompletedAt: completedAt}, nil
}

func (l *Loader) parseItem(ctx context.Context, row csvRow) (domain.TransactionItem, error) {
	var item domain.TransactionItem

	id, err := l.productID(ctx, row.str("barcode"))
	if err != nil {
		return item, row.errorf("%w", err)
	}
	item.ProductID = id

	if item.Quantity, err = row.integer("quantity", 0); err != nil {
		return item, err
	}
	if item.Quantity <= 0 {
		return item, row.errorf("quantity must be positive")
	}
	if item.UnitPrice, err = row.money("unit_price"); err != nil {
		return item, err
	}
	if item.UnitCost, err = row.money("unit_cost"); err != nil {
		return item, err
	}

	return item, nil
}

// LoadEvents inserts one event per row. An optional barcode scopes the event to a product.
func (l *Loader) LoadEvents(ctx context.Context, r io.Reader) (int, error) {
	t, err := newTable(r, "name", "source", "start_date", "end_date", "multiplier")
	if err != nil {
		return 0, err
	}

	count := 0
	for {
		row, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return count, err
		}

		event, err := l.parseEvent(ctx, row)
		if err != nil {
			return count, err
		}
		if err := l.repo.InsertEvent(ctx, &event); err != nil {
			return count, row.errorf("%w", err)
		}
		count++
	}

	return count, nil
}

func (l *Loader) parseEvent(ctx context.Context, row csvRow) (domain.EventRecord, error) {
	event := domain.EventRecord{Name: row.str("name")}
	if event.Name == "" {
		return event, row.errorf("name is required")
	}

	switch source := domain.EventSource(strings.ToUpper(row.str("source"))); source {
	case domain.EventSourceStoreDiscount, domain.EventSourceManufacturerCampaign, domain.EventSourceHoliday:
		event.Source = source
	default:
		return event, row.errorf("unknown event source %q", row.str("source"))
	}

	var err error
	if event.StartDate, err = domain.ParseDate(row.str("start_date")); err != nil {
		return event, row.errorf("start_date: %v", err)
	}
	if event.EndDate, err = domain.ParseDate(row.str("end_date")); err != nil {
		return event, row.errorf("end_date: %v", err)
	}
	if event.EndDate.Before(event.StartDate) {
		return event, row.errorf("end_date before start_date")
	}

	if event.Multiplier, err = row.float("multiplier", 1); err != nil {
		return event, err
	}
	if event.Multiplier <= 0 {
		return event, row.errorf("multiplier must be positive")
	}
	if event.IsActive, err = row.boolean("is_active", true); err != nil {
		return event, err
	}

	if barcode := row.str("barcode"); barcode != "" {
		id, err := l.productID(ctx, barcode)
		if err != nil {
			return event, row.errorf("%w", err)
		}
		event.ProductID = &id
	}
	if brand := row.str("brand"); brand != "" {
		event.Brand = &brand
	}
	if label := row.str("category"); label != "" {
		category, ok := domain.ParseCategory(label)
		if !ok {
			return event, row.errorf("unknown category %q", label)
		}
		event.Category = &category
	}

	return event, nil
}

package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
)

func (s *Store) UpsertProduct(ctx context.Context, pi domain.ProductInventory) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("UpsertProduct")

	var nextID int64
	for id, existing := range s.products {
		if existing.Barcode == pi.Barcode {
			pi.Product.ID = id
			pi.InventoryRecord.ProductID = id
			s.products[id] = pi
			return id, nil
		}
		if id > nextID {
			nextID = id
		}
	}

	nextID++
	pi.Product.ID = nextID
	pi.InventoryRecord.ProductID = nextID
	s.products[nextID] = pi

	return nextID, nil
}

func (s *Store) ProductIDByBarcode(ctx context.Context, barcode string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, pi := range s.products {
		if strings.EqualFold(pi.Barcode, barcode) {
			return id, nil
		}
	}
	return 0, fmt.Errorf("barcode %s: %w", barcode, domain.ErrProductNotFound)
}

func (s *Store) InsertTransaction(ctx context.Context, txn *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("InsertTransaction")

	s.nextTxnID++
	txn.ID = s.nextTxnID

	for _, item := range txn.Items {
		sale := Sale{
			TransactionID: txn.ID,
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			UnitCost:      item.UnitCost,
			Completed:     txn.Status == domain.TransactionCompleted && txn.CompletedAt != nil,
		}
		if txn.CompletedAt != nil {
			sale.CompletedAt = *txn.CompletedAt
		}
		s.sales = append(s.sales, sale)
	}

	return nil
}

func (s *Store) InsertEvent(ctx context.Context, event *domain.EventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track("InsertEvent")

	var maxID int64
	for _, e := range s.events {
		if e.ID > maxID {
			maxID = e.ID
		}
	}
	event.ID = maxID + 1
	s.events = append(s.events, *event)

	return nil
}

package inventory

import (
	"errors"
	"sync"
)

var (
	ErrProductNotFound   = errors.New("product not found in inventory")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Adjustment is one product's quantity change in an all-or-nothing
// operation.
type Adjustment struct {
	ProductID int64
	Quantity  int
}

type StockInfo struct {
	ProductID int64
	OnHand    int
}

// Store is the authoritative runtime stock ledger. The cart engine only
// sees best-effort snapshots; the conditional decrement here is what
// actually enforces correctness at finalize time.
type Store struct {
	mu     sync.RWMutex
	stocks map[int64]int
}

func NewStore() *Store {
	return &Store{stocks: make(map[int64]int)}
}

// SetStock sets the on-hand level for a product.
func (s *Store) SetStock(productID int64, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stocks[productID] = quantity
}

// GetStock returns the on-hand level, or ErrProductNotFound.
func (s *Store) GetStock(productID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stock, exists := s.stocks[productID]
	if !exists {
		return 0, ErrProductNotFound
	}
	return stock, nil
}

// Snapshot returns stock information for the given product IDs, skipping
// unknown products.
func (s *Store) Snapshot(productIDs []int64) []StockInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]StockInfo, 0, len(productIDs))
	for _, id := range productIDs {
		if stock, exists := s.stocks[id]; exists {
			result = append(result, StockInfo{ProductID: id, OnHand: stock})
		}
	}
	return result
}

// ConditionalDecrement applies all adjustments or none. It fails with
// ErrInsufficientStock if any product's stock has dropped below the
// requested quantity since the cart's snapshot was taken; the caller
// surfaces that as a finalize-time error.
func (s *Store) ConditionalDecrement(items []Adjustment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: validate all items have sufficient stock
	for _, item := range items {
		stock, exists := s.stocks[item.ProductID]
		if !exists {
			return ErrProductNotFound
		}
		if stock < item.Quantity {
			return ErrInsufficientStock
		}
	}

	// Second pass: decrement
	for _, item := range items {
		s.stocks[item.ProductID] -= item.Quantity
	}
	return nil
}

// Restock returns quantities to the pool. Used as the compensating action
// for the discard-and-restock flow and for processed returns; unknown
// products are created rather than dropped.
func (s *Store) Restock(items []Adjustment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		s.stocks[item.ProductID] += item.Quantity
	}
}

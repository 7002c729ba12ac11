package sales

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/sufianahinfo/sufianah-pos/internal/counter"
	"github.com/sufianahinfo/sufianah-pos/internal/inventory"
	"github.com/sufianahinfo/sufianah-pos/internal/pos"
)

var (
	ErrSaleLineNotFound     = errors.New("sale line not found")
	ErrReturnExceedsSold    = errors.New("returned quantity exceeds sold quantity")
	ErrNothingToReturn      = errors.New("return request has no lines")
	ErrInvalidPaymentAmount = errors.New("payment amount must be positive")
	ErrAlreadyPaid          = errors.New("sale is already fully paid")

	// ErrReturnStateRegression guards the monotonic return machine:
	// none -> partial -> full, never backwards and never past full.
	ErrReturnStateRegression = errors.New("return status cannot move backwards")
)

// Service owns everything that happens to a sale after the cart engine
// finalizes it: authoritative stock decrement, persistence, the outbox
// event, and the post-sale flows (discard, returns, payments).
type Service struct {
	repo    SaleRepository
	stocks  *inventory.Store
	counter counter.InvoiceCounter
}

func NewService(repo SaleRepository, stocks *inventory.Store, invoices counter.InvoiceCounter) *Service {
	return &Service{
		repo:    repo,
		stocks:  stocks,
		counter: invoices,
	}
}

type CheckoutInput struct {
	Customer pos.Customer
	Payment  pos.Payment
	Delivery pos.Delivery
	Staff    string
	Notes    string
}

func saleAdjustments(sale *pos.SaleRecord) []inventory.Adjustment {
	byProduct := make(map[int64]int)
	order := make([]int64, 0, len(sale.Items))
	for _, item := range sale.Items {
		if _, seen := byProduct[item.ProductID]; !seen {
			order = append(order, item.ProductID)
		}
		// Free items consume physical inventory just like paid ones.
		byProduct[item.ProductID] += item.Quantity
	}

	adjustments := make([]inventory.Adjustment, 0, len(order))
	for _, id := range order {
		adjustments = append(adjustments, inventory.Adjustment{ProductID: id, Quantity: byProduct[id]})
	}
	return adjustments
}

// CompleteSale finalizes the cart, decrements stock conditionally and
// persists the resulting record. The conditional decrement is the
// authoritative stock check; losing the race against a concurrent sale
// surfaces here as ErrInsufficientStock with the cart left intact for
// retry. On a persistence failure the decrement is compensated.
func (s *Service) CompleteSale(ctx context.Context, cart *pos.Cart, in CheckoutInput) (*pos.SaleRecord, error) {
	invoiceNo, err := s.counter.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain invoice number: %w", err)
	}

	sale, err := pos.Finalize(cart, pos.FinalizeInput{
		InvoiceNo: invoiceNo,
		Customer:  in.Customer,
		Payment:   in.Payment,
		Delivery:  in.Delivery,
		Staff:     in.Staff,
		Notes:     in.Notes,
		Now:       time.Now(),
	})
	if err != nil {
		return nil, err
	}

	adjustments := saleAdjustments(sale)
	if errDec := s.stocks.ConditionalDecrement(adjustments); errDec != nil {
		return nil, errDec
	}

	if errSave := s.repo.SaveSale(ctx, sale); errSave != nil {
		s.stocks.Restock(adjustments)
		return nil, errSave
	}

	s.appendOutboxEvent(ctx, sale)
	return sale, nil
}

func (s *Service) appendOutboxEvent(ctx context.Context, sale *pos.SaleRecord) {
	payload, err := json.Marshal(newSaleCompletedEvent(sale))
	if err != nil {
		log.Printf("failed to marshal sale event for %s: %v", sale.InvoiceNo, err)
		return
	}

	event := &OutboxEvent{
		ID:          uuid.New().String(),
		AggregateID: sale.InvoiceNo,
		EventType:   EventTypeSaleCompleted,
		Payload:     payload,
		CreatedAt:   time.Now(),
	}

	// The sale itself is the source of truth; a failed outbox append is
	// logged and the event is lost until a manual replay.
	if err := s.repo.AppendOutboxEvent(ctx, event); err != nil {
		log.Printf("failed to append outbox event for %s: %v", sale.InvoiceNo, err)
	}
}

func (s *Service) GetSale(ctx context.Context, invoiceNo string) (*pos.SaleRecord, error) {
	return s.repo.GetSale(ctx, invoiceNo)
}

func (s *Service) ListSales(ctx context.Context, limit int64) ([]*pos.SaleRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.ListSales(ctx, limit)
}

// DiscardSale deletes a persisted sale and restores the product
// quantities it had consumed, as a compensating action.
func (s *Service) DiscardSale(ctx context.Context, invoiceNo string) error {
	sale, err := s.repo.GetSale(ctx, invoiceNo)
	if err != nil {
		return err
	}

	if errDelete := s.repo.DeleteSale(ctx, invoiceNo); errDelete != nil {
		return errDelete
	}

	s.stocks.Restock(saleAdjustments(sale))
	return nil
}

// ReturnLine identifies units coming back from one sale line.
type ReturnLine struct {
	LineID   string
	Quantity int
}

// ProcessReturn registers returned units against a persisted sale. The
// resulting return status is computed from cumulative quantities and the
// move is validated against the monotonic none -> partial -> full
// machine; stock returns to the pool.
func (s *Service) ProcessReturn(ctx context.Context, invoiceNo string, lines []ReturnLine) (*pos.SaleRecord, error) {
	if len(lines) == 0 {
		return nil, ErrNothingToReturn
	}

	sale, err := s.repo.GetSale(ctx, invoiceNo)
	if err != nil {
		return nil, err
	}

	byLine := make(map[string]*pos.SaleItem, len(sale.Items))
	for i := range sale.Items {
		byLine[sale.Items[i].ID] = &sale.Items[i]
	}

	restock := make([]inventory.Adjustment, 0, len(lines))
	returned := make(map[string]int, len(lines))
	for _, line := range lines {
		item, ok := byLine[line.LineID]
		if !ok {
			return nil, ErrSaleLineNotFound
		}
		if line.Quantity < 1 {
			return nil, pos.ErrInvalidQuantity
		}
		newTotal := item.ReturnedQuantity + line.Quantity
		if newTotal > item.Quantity {
			return nil, ErrReturnExceedsSold
		}
		item.ReturnedQuantity = newTotal
		returned[line.LineID] = newTotal
		restock = append(restock, inventory.Adjustment{ProductID: item.ProductID, Quantity: line.Quantity})
	}

	next := pos.ReturnStatusFull
	for _, item := range sale.Items {
		if item.ReturnedQuantity < item.Quantity {
			next = pos.ReturnStatusPartial
			break
		}
	}

	if !sale.ReturnStatus.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrReturnStateRegression, sale.ReturnStatus, next)
	}

	if errUpdate := s.repo.UpdateReturnState(ctx, invoiceNo, next, returned); errUpdate != nil {
		return nil, errUpdate
	}

	s.stocks.Restock(restock)
	sale.ReturnStatus = next
	return sale, nil
}

// RecordPayment applies a payment against a pending or partially paid
// sale, moving the payment status forward.
func (s *Service) RecordPayment(ctx context.Context, invoiceNo string, amount float64) (*pos.SaleRecord, error) {
	if amount <= 0 {
		return nil, ErrInvalidPaymentAmount
	}

	sale, err := s.repo.GetSale(ctx, invoiceNo)
	if err != nil {
		return nil, err
	}
	if sale.Payment.Status == pos.PaymentStatusPaid {
		return nil, ErrAlreadyPaid
	}

	payment := sale.Payment
	payment.AmountPaid += amount
	if payment.AmountPaid >= sale.Total {
		payment.Status = pos.PaymentStatusPaid
	} else {
		payment.Status = pos.PaymentStatusPartial
	}

	if errUpdate := s.repo.UpdatePayment(ctx, invoiceNo, payment); errUpdate != nil {
		return nil, errUpdate
	}

	sale.Payment = payment
	return sale, nil
}

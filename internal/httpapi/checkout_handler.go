package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sufianahinfo/sufianah-pos/internal/catalog"
	"github.com/sufianahinfo/sufianah-pos/internal/pos"
	"github.com/sufianahinfo/sufianah-pos/internal/sales"
	"github.com/sufianahinfo/sufianah-pos/internal/session"
)

// Catalog is the product lookup collaborator of the checkout flow.
type Catalog interface {
	GetSnapshot(ctx context.Context, id int64) (pos.ProductSnapshot, error)
	ListProducts(ctx context.Context) ([]*catalog.Product, error)
}

// SalesService is the post-finalize boundary of the checkout flow.
type SalesService interface {
	CompleteSale(ctx context.Context, cart *pos.Cart, in sales.CheckoutInput) (*pos.SaleRecord, error)
	GetSale(ctx context.Context, invoiceNo string) (*pos.SaleRecord, error)
	ListSales(ctx context.Context, limit int64) ([]*pos.SaleRecord, error)
	DiscardSale(ctx context.Context, invoiceNo string) error
	ProcessReturn(ctx context.Context, invoiceNo string, lines []sales.ReturnLine) (*pos.SaleRecord, error)
	RecordPayment(ctx context.Context, invoiceNo string, amount float64) (*pos.SaleRecord, error)
}

type CheckoutHandler struct {
	sessions *session.Store
	catalog  Catalog
	sales    SalesService
	timeout  time.Duration
}

func NewCheckoutHandler(sessions *session.Store, catalog Catalog, salesService SalesService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		sessions: sessions,
		catalog:  catalog,
		sales:    salesService,
		timeout:  timeout,
	}
}

type CartView struct {
	SessionID string         `json:"session_id"`
	Items     []pos.CartItem `json:"items"`
	Totals    pos.Totals     `json:"totals"`
}

func cartView(sessionID string, c *pos.Cart) CartView {
	return CartView{
		SessionID: sessionID,
		Items:     c.Items(),
		Totals:    c.ComputeTotals(),
	}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type UpdateDiscountRequestDTO struct {
	Discount float64 `json:"discount"`
}

type FreeItemRequestDTO struct {
	ProductID         int64  `json:"product_id"`
	Quantity          int    `json:"quantity"`
	Note              string `json:"note"`
	RelatedPaidItemID string `json:"related_paid_item_id"`
}

type OrderAdjustmentsRequestDTO struct {
	Discount float64 `json:"discount"`
	Tax      float64 `json:"tax"`
}

type FinalizeRequestDTO struct {
	Customer pos.Customer `json:"customer"`
	Payment  pos.Payment  `json:"payment"`
	Delivery pos.Delivery `json:"delivery"`
	Notes    string       `json:"notes"`
}

func (h *CheckoutHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Create(staffIDFromContext(r.Context()))

	var view CartView
	_ = sess.WithCart(func(c *pos.Cart) error {
		view = cartView(sess.ID, c)
		return nil
	})
	respondJSON(w, http.StatusCreated, view)
}

func (h *CheckoutHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := h.sessions.Get(chi.URLParam(r, "session_id"))
	if err != nil {
		handleDomainError(w, err)
		return nil, false
	}
	return sess, true
}

func (h *CheckoutHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var view CartView
	_ = sess.WithCart(func(c *pos.Cart) error {
		view = cartView(sess.ID, c)
		return nil
	})
	respondJSON(w, http.StatusOK, view)
}

func (h *CheckoutHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}

	snapshot, err := h.catalog.GetSnapshot(ctx, req.ProductID)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	var view CartView
	err = sess.WithCart(func(c *pos.Cart) error {
		if _, errAdd := c.AddPaidItem(snapshot, req.Quantity); errAdd != nil {
			return errAdd
		}
		view = cartView(sess.ID, c)
		return nil
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, view)
}

func (h *CheckoutHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	lineID := chi.URLParam(r, "line_id")

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	var view CartView
	err := sess.WithCart(func(c *pos.Cart) error {
		if errUpdate := c.UpdateQuantity(lineID, req.Quantity); errUpdate != nil {
			return errUpdate
		}
		view = cartView(sess.ID, c)
		return nil
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

func (h *CheckoutHandler) UpdateDiscount(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	lineID := chi.URLParam(r, "line_id")

	var req UpdateDiscountRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	var view CartView
	err := sess.WithCart(func(c *pos.Cart) error {
		if errUpdate := c.UpdateDiscount(lineID, req.Discount); errUpdate != nil {
			return errUpdate
		}
		view = cartView(sess.ID, c)
		return nil
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

func (h *CheckoutHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	lineID := chi.URLParam(r, "line_id")

	var view CartView
	var removed pos.RemovedQuantities
	err := sess.WithCart(func(c *pos.Cart) error {
		var errRemove error
		removed, errRemove = c.RemoveItem(lineID)
		if errRemove != nil {
			return errRemove
		}
		view = cartView(sess.ID, c)
		return nil
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"removed_quantities": removed,
		"cart":               view,
	})
}

func (h *CheckoutHandler) GrantFreeItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req FreeItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}

	snapshot, err := h.catalog.GetSnapshot(ctx, req.ProductID)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	var view CartView
	var lineID string
	err = sess.WithCart(func(c *pos.Cart) error {
		var errGrant error
		lineID, errGrant = c.GrantFreeItem(snapshot, req.Quantity, req.Note, req.RelatedPaidItemID)
		if errGrant != nil {
			return errGrant
		}
		view = cartView(sess.ID, c)
		return nil
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"line_id": lineID,
		"cart":    view,
	})
}

func (h *CheckoutHandler) SetOrderAdjustments(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req OrderAdjustmentsRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	var view CartView
	_ = sess.WithCart(func(c *pos.Cart) error {
		c.SetOrderDiscount(req.Discount)
		c.SetTax(req.Tax)
		view = cartView(sess.ID, c)
		return nil
	})

	respondJSON(w, http.StatusOK, view)
}

func (h *CheckoutHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req FinalizeRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	var sale *pos.SaleRecord
	err := sess.WithCart(func(c *pos.Cart) error {
		var errComplete error
		sale, errComplete = h.sales.CompleteSale(ctx, c, sales.CheckoutInput{
			Customer: req.Customer,
			Payment:  req.Payment,
			Delivery: req.Delivery,
			Staff:    staffIDFromContext(r.Context()),
			Notes:    req.Notes,
		})
		return errComplete
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}

	// The cart is spent; the session goes with it.
	_ = h.sessions.Delete(sess.ID)

	respondJSON(w, http.StatusCreated, sale)
}

func (h *CheckoutHandler) DiscardSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(chi.URLParam(r, "session_id")); err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "discarded"})
}

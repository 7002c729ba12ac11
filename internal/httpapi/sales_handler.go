package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sufianahinfo/sufianah-pos/internal/sales"
)

type SalesHandler struct {
	sales   SalesService
	timeout time.Duration
}

func NewSalesHandler(salesService SalesService, timeout time.Duration) *SalesHandler {
	return &SalesHandler{sales: salesService, timeout: timeout}
}

type ReturnRequestDTO struct {
	Lines []sales.ReturnLine `json:"lines"`
}

type PaymentRequestDTO struct {
	Amount float64 `json:"amount"`
}

func (h *SalesHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var limit int64
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	records, err := h.sales.ListSales(ctx, limit)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, records)
}

func (h *SalesHandler) GetSale(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sale, err := h.sales.GetSale(ctx, chi.URLParam(r, "invoice_no"))
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, sale)
}

func (h *SalesHandler) DiscardSale(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	invoiceNo := chi.URLParam(r, "invoice_no")
	if err := h.sales.DiscardSale(ctx, invoiceNo); err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"invoice_no": invoiceNo,
		"status":     "discarded",
	})
}

func (h *SalesHandler) ProcessReturn(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ReturnRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if len(req.Lines) == 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "at least one return line is required")
		return
	}

	sale, err := h.sales.ProcessReturn(ctx, chi.URLParam(r, "invoice_no"), req.Lines)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, sale)
}

func (h *SalesHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req PaymentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	sale, err := h.sales.RecordPayment(ctx, chi.URLParam(r, "invoice_no"), req.Amount)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, sale)
}

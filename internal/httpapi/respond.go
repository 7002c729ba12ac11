package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/sufianahinfo/sufianah-pos/internal/catalog"
	"github.com/sufianahinfo/sufianah-pos/internal/inventory"
	"github.com/sufianahinfo/sufianah-pos/internal/pos"
	"github.com/sufianahinfo/sufianah-pos/internal/sales"
	"github.com/sufianahinfo/sufianah-pos/internal/session"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleDomainError converts engine and service failures into HTTP
// responses. Every expected failure is a typed sentinel; anything else
// is an internal error.
func handleDomainError(w http.ResponseWriter, err error) {
	var httpStatus int
	var code string

	switch {
	case errors.Is(err, pos.ErrInvalidQuantity):
		httpStatus = http.StatusBadRequest
		code = "invalid_quantity"
	case errors.Is(err, pos.ErrEmptyCart):
		httpStatus = http.StatusBadRequest
		code = "empty_cart"
	case errors.Is(err, sales.ErrInvalidPaymentAmount):
		httpStatus = http.StatusBadRequest
		code = "invalid_payment_amount"
	case errors.Is(err, sales.ErrNothingToReturn):
		httpStatus = http.StatusBadRequest
		code = "nothing_to_return"
	case errors.Is(err, pos.ErrStockInsufficient), errors.Is(err, inventory.ErrInsufficientStock):
		httpStatus = http.StatusConflict
		code = "stock_insufficient"
	case errors.Is(err, pos.ErrDanglingFreeLine):
		httpStatus = http.StatusConflict
		code = "dangling_free_line"
	case errors.Is(err, sales.ErrDuplicateInvoice):
		httpStatus = http.StatusConflict
		code = "duplicate_invoice"
	case errors.Is(err, sales.ErrReturnExceedsSold):
		httpStatus = http.StatusConflict
		code = "return_exceeds_sold"
	case errors.Is(err, sales.ErrReturnStateRegression):
		httpStatus = http.StatusConflict
		code = "return_state_regression"
	case errors.Is(err, sales.ErrAlreadyPaid):
		httpStatus = http.StatusConflict
		code = "already_paid"
	case errors.Is(err, pos.ErrLineNotFound), errors.Is(err, sales.ErrSaleLineNotFound):
		httpStatus = http.StatusNotFound
		code = "line_not_found"
	case errors.Is(err, session.ErrSessionNotFound):
		httpStatus = http.StatusNotFound
		code = "session_not_found"
	case errors.Is(err, sales.ErrSaleNotFound):
		httpStatus = http.StatusNotFound
		code = "sale_not_found"
	case errors.Is(err, catalog.ErrProductNotFound), errors.Is(err, inventory.ErrProductNotFound):
		httpStatus = http.StatusNotFound
		code = "product_not_found"
	default:
		httpStatus = http.StatusInternalServerError
		code = "internal_error"
	}

	message := err.Error()
	if httpStatus == http.StatusInternalServerError {
		message = "internal server error"
	}
	respondError(w, httpStatus, code, message)
}

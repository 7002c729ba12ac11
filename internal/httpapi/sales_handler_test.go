package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sufianahinfo/sufianah-pos/internal/pos"
	"github.com/sufianahinfo/sufianah-pos/internal/sales"
)

func TestListSales_Success(t *testing.T) {
	mock := &SalesServiceMock{
		sales: []*pos.SaleRecord{
			{InvoiceNo: "INV-20260828-0002", Total: 1170},
			{InvoiceNo: "INV-20260828-0001", Total: 300},
		},
	}

	handler := NewSalesHandler(mock, 5*time.Second)
	recorder := httptest.NewRecorder()
	request := withStaff(httptest.NewRequest("GET", "/api/v1/sales?limit=2", nil))

	handler.ListSales(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, recorder.Code)
	}

	var response []*pos.SaleRecord
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response) != 2 {
		t.Fatalf("expected 2 sales, got %d", len(response))
	}
	if response[0].InvoiceNo != "INV-20260828-0002" {
		t.Errorf("expected newest sale first, got '%s'", response[0].InvoiceNo)
	}
}

func TestListSales_EmptyList(t *testing.T) {
	mock := &SalesServiceMock{sales: []*pos.SaleRecord{}}

	handler := NewSalesHandler(mock, 5*time.Second)
	recorder := httptest.NewRecorder()
	request := withStaff(httptest.NewRequest("GET", "/api/v1/sales", nil))

	handler.ListSales(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, recorder.Code)
	}

	// Must be a JSON array, not null
	var raw json.RawMessage
	if err := json.NewDecoder(recorder.Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if string(raw) == "null" {
		t.Error("expected empty array, got null")
	}
}

func TestListSales_InvalidLimit(t *testing.T) {
	handler := NewSalesHandler(&SalesServiceMock{}, 5*time.Second)
	recorder := httptest.NewRecorder()
	request := withStaff(httptest.NewRequest("GET", "/api/v1/sales?limit=abc", nil))

	handler.ListSales(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestGetSale_NotFound(t *testing.T) {
	mock := &SalesServiceMock{err: sales.ErrSaleNotFound}

	handler := NewSalesHandler(mock, 5*time.Second)
	recorder := httptest.NewRecorder()
	request := withParams(withStaff(httptest.NewRequest("GET", "/", nil)), "invoice_no", "INV-20260828-0099")

	handler.GetSale(recorder, request)

	if recorder.Code != http.StatusNotFound {
		t.Errorf("expected %d, got %d", http.StatusNotFound, recorder.Code)
	}

	var response ErrorResponse
	json.NewDecoder(recorder.Body).Decode(&response)
	if response.Code != "sale_not_found" {
		t.Errorf("expected code 'sale_not_found', got '%s'", response.Code)
	}
}

func TestDiscardSale_Success(t *testing.T) {
	handler := NewSalesHandler(&SalesServiceMock{}, 5*time.Second)
	recorder := httptest.NewRecorder()
	request := withParams(withStaff(httptest.NewRequest("DELETE", "/", nil)), "invoice_no", "INV-20260828-0001")

	handler.DiscardSale(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, recorder.Code)
	}

	var response map[string]string
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response["status"] != "discarded" {
		t.Errorf("expected status 'discarded', got '%s'", response["status"])
	}
}

func TestProcessReturn_Success(t *testing.T) {
	mock := &SalesServiceMock{
		sale: &pos.SaleRecord{InvoiceNo: "INV-20260828-0001", ReturnStatus: pos.ReturnStatusPartial},
	}

	handler := NewSalesHandler(mock, 5*time.Second)
	body := jsonBody(t, ReturnRequestDTO{
		Lines: []sales.ReturnLine{{LineID: "line-1", Quantity: 2}},
	})
	recorder := httptest.NewRecorder()
	request := withParams(withStaff(httptest.NewRequest("POST", "/", body)), "invoice_no", "INV-20260828-0001")

	handler.ProcessReturn(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d: %s", http.StatusOK, recorder.Code, recorder.Body.String())
	}

	var response pos.SaleRecord
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.ReturnStatus != pos.ReturnStatusPartial {
		t.Errorf("expected return status 'partial', got '%s'", response.ReturnStatus)
	}
}

func TestProcessReturn_NoLines(t *testing.T) {
	handler := NewSalesHandler(&SalesServiceMock{}, 5*time.Second)
	body := jsonBody(t, ReturnRequestDTO{})
	recorder := httptest.NewRecorder()
	request := withParams(withStaff(httptest.NewRequest("POST", "/", body)), "invoice_no", "INV-20260828-0001")

	handler.ProcessReturn(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestProcessReturn_ExceedsSold(t *testing.T) {
	mock := &SalesServiceMock{err: sales.ErrReturnExceedsSold}

	handler := NewSalesHandler(mock, 5*time.Second)
	body := jsonBody(t, ReturnRequestDTO{
		Lines: []sales.ReturnLine{{LineID: "line-1", Quantity: 99}},
	})
	recorder := httptest.NewRecorder()
	request := withParams(withStaff(httptest.NewRequest("POST", "/", body)), "invoice_no", "INV-20260828-0001")

	handler.ProcessReturn(recorder, request)

	if recorder.Code != http.StatusConflict {
		t.Errorf("expected %d, got %d", http.StatusConflict, recorder.Code)
	}
}

func TestRecordPayment_Success(t *testing.T) {
	mock := &SalesServiceMock{
		sale: &pos.SaleRecord{InvoiceNo: "INV-20260828-0001", Payment: pos.Payment{Status: pos.PaymentStatusPaid}},
	}

	handler := NewSalesHandler(mock, 5*time.Second)
	body := jsonBody(t, PaymentRequestDTO{Amount: 500})
	recorder := httptest.NewRecorder()
	request := withParams(withStaff(httptest.NewRequest("POST", "/", body)), "invoice_no", "INV-20260828-0001")

	handler.RecordPayment(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, recorder.Code)
	}

	var response pos.SaleRecord
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Payment.Status != pos.PaymentStatusPaid {
		t.Errorf("expected payment status 'paid', got '%s'", response.Payment.Status)
	}
}

func TestRecordPayment_AlreadyPaid(t *testing.T) {
	mock := &SalesServiceMock{err: sales.ErrAlreadyPaid}

	handler := NewSalesHandler(mock, 5*time.Second)
	body := jsonBody(t, PaymentRequestDTO{Amount: 500})
	recorder := httptest.NewRecorder()
	request := withParams(withStaff(httptest.NewRequest("POST", "/", body)), "invoice_no", "INV-20260828-0001")

	handler.RecordPayment(recorder, request)

	if recorder.Code != http.StatusConflict {
		t.Errorf("expected %d, got %d", http.StatusConflict, recorder.Code)
	}
}

package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStaffAuthMiddleware_MissingHeader(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached without staff identity")
	})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/api/v1/products", nil)

	StaffAuthMiddleware(next).ServeHTTP(recorder, request)

	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("expected %d, got %d", http.StatusUnauthorized, recorder.Code)
	}
}

func TestStaffAuthMiddleware_PassesStaffID(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = staffIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/api/v1/products", nil)
	request.Header.Set("X-Staff-ID", "staff-7")

	StaffAuthMiddleware(next).ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, recorder.Code)
	}
	if seen != "staff-7" {
		t.Errorf("expected staff id 'staff-7', got '%s'", seen)
	}
}

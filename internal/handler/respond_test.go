package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukerupert/mesa/internal/domain"
)

func TestErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{domain.EINVALID, http.StatusBadRequest},
		{domain.ENOTFOUND, http.StatusNotFound},
		{domain.ECONFLICT, http.StatusConflict},
		{domain.EPRECONDITION, http.StatusConflict},
		{domain.ETOOLARGE, http.StatusRequestEntityTooLarge},
		{domain.ERATELIMIT, http.StatusTooManyRequests},
		{domain.EUNAVAILABLE, http.StatusBadGateway},
		{domain.EBADDATA, http.StatusBadGateway},
		{domain.EINTERNAL, http.StatusInternalServerError},
		{"unknown_code", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := ErrorCodeToHTTPStatus(tt.code); got != tt.expected {
				t.Errorf("ErrorCodeToHTTPStatus(%q) = %d, want %d", tt.code, got, tt.expected)
			}
		})
	}
}

func TestErrorResponseEnvelope(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		redirect       string
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "not found error",
			err:            domain.NotFound("catalog.get_restaurant", "restaurant", "7"),
			expectedStatus: http.StatusNotFound,
			expectedCode:   domain.ENOTFOUND,
		},
		{
			name:           "invalid error",
			err:            domain.Invalid("cart.add_item", "productId is required"),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   domain.EINVALID,
		},
		{
			name:           "precondition with redirect",
			err:            domain.ErrDeliveryRequired,
			redirect:       "/checkout/delivery",
			expectedStatus: http.StatusConflict,
			expectedCode:   domain.EPRECONDITION,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			rec := httptest.NewRecorder()

			if tt.redirect != "" {
				ErrorResponseRedirect(rec, req, tt.err, tt.redirect)
			} else {
				ErrorResponse(rec, req, tt.err)
			}

			if rec.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.expectedStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want %q", ct, "application/json")
			}

			var body struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
				Redirect string `json:"redirect"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Error.Code != tt.expectedCode {
				t.Errorf("code = %q, want %q", body.Error.Code, tt.expectedCode)
			}
			if body.Error.Message == "" {
				t.Error("message is empty")
			}
			if body.Redirect != tt.redirect {
				t.Errorf("redirect = %q, want %q", body.Redirect, tt.redirect)
			}
		})
	}
}

func TestErrorResponseValidationFields(t *testing.T) {
	err := &domain.ValidationError{
		Op: "checkout.submit_delivery",
		Fields: map[string]string{
			"receiverName": "this field is required",
			"zipCode":      "this field is required",
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/checkout/delivery", nil)
	rec := httptest.NewRecorder()
	ErrorResponse(rec, req, err)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	var body struct {
		Error struct {
			Code   string            `json:"code"`
			Fields map[string]string `json:"fields"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error.Code != domain.EINVALID {
		t.Errorf("code = %q, want %q", body.Error.Code, domain.EINVALID)
	}
	if len(body.Error.Fields) != 2 {
		t.Errorf("fields = %v, want 2 entries", body.Error.Fields)
	}
}

func TestErrorResponseHidesInternalDetail(t *testing.T) {
	err := domain.Internal(errors.New("connection refused"), "session.create", "failed to create session")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	ErrorResponse(rec, req, err)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := rec.Body.String(); strings.Contains(body, "connection refused") {
		t.Errorf("response leaks internal detail: %s", body)
	}
}

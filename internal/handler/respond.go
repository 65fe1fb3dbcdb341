// Package handler holds the JSON response plumbing shared by the HTTP
// handlers: success encoding, the error envelope and the domain-code to
// HTTP-status mapping.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/dukerupert/mesa/internal/domain"
	"github.com/dukerupert/mesa/internal/middleware"
)

// RespondJSON writes v as a JSON response with the given status.
func RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// errorBody is the wire shape of the error envelope.
type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type errorEnvelope struct {
	Error    errorBody `json:"error"`
	Redirect string    `json:"redirect,omitempty"`
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest // 400
	case domain.ENOTFOUND:
		return http.StatusNotFound // 404
	case domain.ECONFLICT, domain.EPRECONDITION:
		return http.StatusConflict // 409
	case domain.ETOOLARGE:
		return http.StatusRequestEntityTooLarge // 413
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests // 429
	case domain.EUNAVAILABLE, domain.EBADDATA:
		return http.StatusBadGateway // 502
	case domain.EINTERNAL:
		return http.StatusInternalServerError // 500
	default:
		return http.StatusInternalServerError // 500
	}
}

// ErrorResponse writes the error envelope for err. Validation errors carry
// their per-field map; internal errors are logged with the underlying cause
// but surface only a generic message.
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, err, "")
}

// ErrorResponseRedirect is ErrorResponse with a redirect hint for the
// client, used by checkout gates to steer the browser back to the step it
// must complete first.
func ErrorResponseRedirect(w http.ResponseWriter, r *http.Request, err error, redirect string) {
	errorResponse(w, r, err, redirect)
}

func errorResponse(w http.ResponseWriter, r *http.Request, err error, redirect string) {
	code := domain.ErrorCode(err)
	status := ErrorCodeToHTTPStatus(code)

	logger := middleware.GetLogger(r.Context())
	attrs := []any{
		"error", err.Error(),
		"code", code,
		"status", status,
	}
	if op := domain.ErrorOp(err); op != "" {
		attrs = append(attrs, "op", op)
	}
	if status >= 500 {
		logger.Error("request failed", attrs...)
	} else {
		logger.Info("request failed", attrs...)
	}

	envelope := errorEnvelope{
		Error: errorBody{
			Code:    code,
			Message: domain.ErrorMessage(err),
			Fields:  domain.GetValidationFields(err),
		},
		Redirect: redirect,
	}

	RespondJSON(w, status, envelope)
}

// Package httpx carries the response envelope and the error translator used
// by every handler in the service.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/getsentry/sentry-go"

	"review-platform/internal/apperr"
)

const maxJSONBodyBytes = 1 << 20

var development bool

// SetDevelopmentMode controls whether unclassified errors leak their message
// in responses. Called once from bootstrap.
func SetDevelopmentMode(enabled bool) {
	development = enabled
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type paginatedEnvelope struct {
	Success    bool       `json:"success"`
	Message    string     `json:"message"`
	Data       any        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

func OK(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: message, Data: data})
}

func Created(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusCreated, envelope{Success: true, Message: message, Data: data})
}

func Paginated(w http.ResponseWriter, message string, data any, pagination Pagination) {
	writeJSON(w, http.StatusOK, paginatedEnvelope{Success: true, Message: message, Data: data, Pagination: pagination})
}

// Fail translates an error into a response. Operational errors map by kind;
// anything else goes to Sentry and surfaces as a generic 500.
func Fail(w http.ResponseWriter, err error) {
	if appErr, ok := apperr.As(err); ok {
		writeJSON(w, statusFor(appErr.Kind), envelope{Success: false, Message: appErr.Message})
		return
	}

	sentry.CaptureException(err)
	message := "Internal server error"
	if development {
		message = err.Error()
	}
	writeJSON(w, http.StatusInternalServerError, envelope{Success: false, Message: message})
}

func FailMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSON reads a size-capped JSON body, rejecting unknown fields.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		FailMessage(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}

	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

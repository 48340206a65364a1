// Package api holds the JSON envelope shared by the daemon's API routes.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cloo-solutions/tastyfind/internal/domain"
	"github.com/cloo-solutions/tastyfind/internal/transport"
)

// Codes for failures that do not come from a DomainError.
const (
	CodeBackend  = "BACKEND_ERROR"
	CodeNotFound = domain.ErrCodeNotFound
	CodeInternal = domain.ErrCodeInternalError
)

// SuccessResponse wraps successful API responses
type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// ErrorResponse carries a message fit for a banner plus a stable code.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// JSON writes data with the given status. A nil data writes headers only.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

func Success(w http.ResponseWriter, status int, data interface{}) {
	JSON(w, status, SuccessResponse{Data: data})
}

// Error writes an error body without a code.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// HandleError classifies err and writes the matching error body.
func HandleError(w http.ResponseWriter, err error) {
	p := classify(err)
	JSON(w, p.status, ErrorResponse{Error: p.message, Code: p.code})
}

// ErrorToHTTP maps domain and backend errors to HTTP status codes
func ErrorToHTTP(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return classify(err).status
}

type problem struct {
	status  int
	code    string
	message string
}

// classify favours the backend's own error text, then the domain message.
// A missing restaurant is a 404; any other backend failure is a bad gateway.
func classify(err error) problem {
	var te *transport.Error
	if errors.As(err, &te) {
		if errors.Is(err, transport.ErrNotFound) {
			return problem{http.StatusNotFound, CodeNotFound, te.Message}
		}
		return problem{http.StatusBadGateway, CodeBackend, te.Message}
	}

	var de *domain.DomainError
	if errors.As(err, &de) {
		status := http.StatusInternalServerError
		switch de.Code {
		case domain.ErrCodeValidation:
			status = http.StatusBadRequest
		case domain.ErrCodeNotFound:
			status = http.StatusNotFound
		}
		return problem{status, de.Code, de.Message}
	}

	return problem{http.StatusInternalServerError, CodeInternal, err.Error()}
}

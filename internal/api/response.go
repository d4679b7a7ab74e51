// Package api holds the HTTP response envelope, handlers and middleware.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/syllabiq/syllabiq/internal/domain"
)

// Response is the uniform JSON envelope.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody carries a machine code and human message.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success writes a 2xx envelope.
func Success(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, Response{Success: true, Data: data})
}

// Error writes an error envelope.
func Error(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Response{Success: false, Error: &ErrorBody{Code: code, Message: message}})
}

// DomainError maps a domain error to its HTTP status and writes it.
func DomainError(w http.ResponseWriter, err error) {
	var derr *domain.DomainError
	if !errors.As(err, &derr) {
		log.Printf("api: internal error: %v", err)
		Error(w, http.StatusInternalServerError, domain.ErrCodeInternalError, "internal server error")
		return
	}
	Error(w, statusFor(derr.Code), derr.Code, derr.Message)
}

func statusFor(code string) int {
	switch code {
	case domain.ErrCodeValidation, domain.ErrCodeConfig:
		return http.StatusBadRequest
	case domain.ErrCodeNotFound:
		return http.StatusNotFound
	case domain.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case domain.ErrCodeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("api: encoding response: %v", err)
	}
}

package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON and writeError so the wire format
// stays uniform. Every error response has the same shape:
//
//	{"error": "post not found with id abc123", "code": "not_found"}
//
// "error" is for humans, "code" is for clients to branch on.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/linkup/internal/apperror"
)

// Machine-readable error codes.
const (
	codeValidation   = "validation_error"
	codeUnauthorized = "unauthorized"
	codeForbidden    = "forbidden"
	codeNotFound     = "not_found"
	codeConflict     = "conflict"
	codeInternal     = "internal_error"
)

// internalErrorMessage is the only thing a client ever learns about a 500.
const internalErrorMessage = "an internal error occurred"

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// okResponse acknowledges a mutation that has nothing else to return.
type okResponse struct {
	OK bool `json:"ok"`
}

// writeJSON sends a JSON response with the given status code.
//
// Headers and status must be set BEFORE the body: once Encode writes, the
// headers are on the wire and later changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to its HTTP status and sends it.
//
// The service layer never knows about status codes. errors.As walks the
// wrap chain, so fmt.Errorf("service/post: ...: %w", apperror.Forbidden(...))
// still comes out as a 403.
//
// Anything that is not an *apperror.AppError is a server failure: the cause
// is logged with the request id and the client gets a fixed message, since
// the raw error may contain SQL, file paths or bucket names.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status, code := statusFor(appErr)
		if status != http.StatusInternalServerError {
			writeJSON(w, status, ErrorResponse{Error: appErr.Message, Code: code})
			return
		}
	}

	logger.Error("request failed",
		slog.String("requestID", chimiddleware.GetReqID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error: internalErrorMessage,
		Code:  codeInternal,
	})
}

func statusFor(err *apperror.AppError) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, codeValidation
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized, codeUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, codeForbidden
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, codeConflict
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

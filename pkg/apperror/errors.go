package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Authentication & Access (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_002", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrForbidden() *AppError {
	return New("AUTH_003", "Insufficient permissions", http.StatusForbidden)
}

func ErrResetTokenInvalid() *AppError {
	return New("AUTH_004", "Reset token is invalid or already used", http.StatusUnauthorized)
}

// ---- Registry (REG) ----

func ErrNotFound(entity string) *AppError {
	return New("REG_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func Validation(message string) *AppError {
	return New("REG_002", message, http.StatusBadRequest)
}

func ErrDuplicate(entity string) *AppError {
	return New("REG_003", fmt.Sprintf("%s already exists", entity), http.StatusConflict)
}

// ---- Collections (PAY) ----

func ErrInvalidAmount() *AppError {
	return New("PAY_001", "Invalid amount", http.StatusBadRequest)
}

func ErrCollectionNotPermitted() *AppError {
	return New("PAY_002", "Recording payments is not permitted for this account", http.StatusForbidden)
}

func ErrOverpayment() *AppError {
	return New("PAY_003", "Amount exceeds remaining balance", http.StatusUnprocessableEntity)
}

// ---- Snapshot (SNAP) ----

func ErrInvalidSnapshot(message string) *AppError {
	return New("SNAP_001", message, http.StatusBadRequest)
}

// ErrRestoreAborted reports a restore that stopped mid-way. Tables already
// upserted stay upserted; the message names the failing table.
func ErrRestoreAborted(table string, err error) *AppError {
	return Wrap("SNAP_002", fmt.Sprintf("restore aborted at table %s", table), http.StatusInternalServerError, err)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

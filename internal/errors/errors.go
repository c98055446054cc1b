// Package errors provides custom error types for the centabit core.
// All store, repository and sync-layer errors use AppError so callers
// can branch on stable error codes instead of message strings.
package errors

// AppError represents a structured application error with an error code,
// human-readable message, and optional internal error.
type AppError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Internal error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target carries the same error code, so sentinel
// values match wrapped copies under errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:     sentinel.Code,
		Message:  sentinel.Message,
		Internal: internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:     sentinel.Code,
		Message:  message,
		Internal: sentinel.Internal,
	}
}

// General errors.
var (
	ErrInvalidInput = &AppError{Code: "INVALID_INPUT", Message: "Invalid input"}
	ErrNotFound     = &AppError{Code: "NOT_FOUND", Message: "Record not found"}
)

// Store errors.
var (
	// ErrOwnershipViolation marks a write against a record whose owner does
	// not match the accessor's bound owner. Never retried; raised before any
	// I/O is attempted.
	ErrOwnershipViolation = &AppError{Code: "OWNERSHIP_VIOLATION", Message: "Record does not belong to the bound owner"}

	// ErrStoreIO wraps database-level failures. Surfaced to the caller
	// unchanged; retry policy belongs to the caller.
	ErrStoreIO = &AppError{Code: "STORE_IO", Message: "Durable store operation failed"}
)

// Entity errors. Each wraps ErrNotFound so errors.Is(err, ErrNotFound)
// matches any of them.
var (
	ErrTransactionNotFound = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", Internal: ErrNotFound}
	ErrCategoryNotFound    = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", Internal: ErrNotFound}
	ErrBudgetNotFound      = &AppError{Code: "BUDGET_NOT_FOUND", Message: "Budget not found", Internal: ErrNotFound}
	ErrAllocationNotFound  = &AppError{Code: "ALLOCATION_NOT_FOUND", Message: "Allocation not found", Internal: ErrNotFound}
)

// Sync errors.
var (
	// ErrSyncConnectivity marks a connectivity failure (timeout, DNS, no
	// route). The worker reports Offline and retries on the next tick.
	ErrSyncConnectivity = &AppError{Code: "SYNC_OFFLINE", Message: "Remote authority unreachable"}

	// ErrSyncRemote marks a structural or authentication failure from the
	// remote. The worker reports Failed and does not retry automatically.
	ErrSyncRemote = &AppError{Code: "SYNC_REMOTE", Message: "Remote authority rejected the request"}
)

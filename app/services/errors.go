package services

import "fmt"

// ValidationError reports malformed order input: empty lines, non-positive
// quantity, duplicate product references. The request never reaches the
// database when this is returned.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d field(s)", len(e.Fields))
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// NotFoundError reports a referenced resource that does not exist. Inside
// the order transaction it triggers a full rollback.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// InsufficientStockError reports that a locked product could not cover the
// requested quantity. Available is the value read under the row lock, so it
// is exact at the moment of failure.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (%s): requested %d, available %d",
		e.Name, e.ProductID, e.Requested, e.Available)
}

// TimeoutError reports that the order transaction exceeded its time bound
// (either the overall deadline or a lock wait) and was rolled back.
type TimeoutError struct {
	Stage string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("order transaction timed out during %s", e.Stage)
}

package domain

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

const (
	MsgProductNotFound  = "Product not found."
	MsgCategoriesFailed = "Failed to load categories. Please try again."
	MsgRequiredFields   = "Please fill all required fields."
	MsgProductUpdated   = "Product updated successfully!"
	fetchProductPrefix  = "Failed to fetch product: "
	updateProductPrefix = "Failed to update product: "
)

// FetchError is a failed read against the document store.
type FetchError struct {
	Resource string
	Err      error
}

func (e *FetchError) Error() string {
	if e.Resource == CategoriesCollection {
		return MsgCategoriesFailed
	}
	return fetchProductPrefix + e.Err.Error()
}

func (e *FetchError) Unwrap() error { return e.Err }

// ValidationError is a client-side check that failed before the store was
// contacted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// UpdateError is a failed write against the document store.
type UpdateError struct {
	Err error
}

func (e *UpdateError) Error() string { return updateProductPrefix + e.Err.Error() }

func (e *UpdateError) Unwrap() error { return e.Err }

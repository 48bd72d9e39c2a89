package model

import "errors"

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON         = "INVALID_JSON"
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeOrderNotFound       = "ORDER_NOT_FOUND"
	ErrCodeProductNotFound     = "PRODUCT_NOT_FOUND"
	ErrCodePostNotFound        = "POST_NOT_FOUND"
	ErrCodeGatewayUnconfigured = "GATEWAY_UNCONFIGURED"
	ErrCodeGatewayError        = "GATEWAY_ERROR"
	ErrCodeStorageCorruption   = "STORAGE_CORRUPTION"
	ErrCodeWebhookUnverified   = "WEBHOOK_UNVERIFIED"
	ErrCodeUnauthorised        = "UNAUTHORIZED"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError carrying the same code, so wrapped variants
// created with WithCause still satisfy errors.Is against the sentinels below.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// WithCause returns a copy of the error carrying a more specific message and cause.
func (e *DomainError) WithCause(message string, cause error) *DomainError {
	return &DomainError{Code: e.Code, Message: message, Err: cause}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrInvalidInput        = NewDomainError(ErrCodeInvalidInput, "Invalid input")
	ErrOrderNotFound       = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrProductNotFound     = NewDomainError(ErrCodeProductNotFound, "Product not found")
	ErrPostNotFound        = NewDomainError(ErrCodePostNotFound, "Post not found")
	ErrGatewayUnconfigured = NewDomainError(ErrCodeGatewayUnconfigured, "Payment gateway not configured")
	ErrGatewayError        = NewDomainError(ErrCodeGatewayError, "Could not create payment session")
	ErrStorageCorruption   = NewDomainError(ErrCodeStorageCorruption, "Stored collection is corrupt")
	ErrWebhookUnverified   = NewDomainError(ErrCodeWebhookUnverified, "Webhook signature could not be verified")
)

// InvalidInput builds an ErrInvalidInput variant with a specific message.
func InvalidInput(message string) error {
	return ErrInvalidInput.WithCause(message, nil)
}

// CodeOf returns the domain error code of err, or ErrCodeInternalError.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ErrCodeInternalError
}

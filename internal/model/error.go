package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON         = "INVALID_JSON"
	ErrCodeMissingField        = "MISSING_FIELD"
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeUserNotFound        = "USER_NOT_FOUND"
	ErrCodeProductNotFound     = "PRODUCT_NOT_FOUND"
	ErrCodeOrderNotFound       = "ORDER_NOT_FOUND"
	ErrCodeOutOfStock          = "OUT_OF_STOCK"
	ErrCodeInvalidQuantity     = "INVALID_QUANTITY"
	ErrCodeAmountMismatch      = "AMOUNT_MISMATCH"
	ErrCodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	ErrCodeInvalidTransition   = "INVALID_TRANSITION"
	ErrCodeUnknownBank         = "UNKNOWN_BANK"
	ErrCodeGatewayError        = "GATEWAY_ERROR"
	ErrCodeInvalidSignature    = "INVALID_SIGNATURE"
	ErrCodeUnauthorised        = "UNAUTHORIZED"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// DomainError is a business-logic error carrying a stable machine code.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
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
	ErrUserNotFound        = NewDomainError(ErrCodeUserNotFound, "User not found")
	ErrProductNotFound     = NewDomainError(ErrCodeProductNotFound, "One or more products not found")
	ErrOrderNotFound       = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrOutOfStock          = NewDomainError(ErrCodeOutOfStock, "Insufficient stock for one or more items")
	ErrInvalidQuantity     = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrAmountMismatch      = NewDomainError(ErrCodeAmountMismatch, "Gateway-reported amount does not match the order total")
	ErrInsufficientBalance = NewDomainError(ErrCodeInsufficientBalance, "Wallet balance is insufficient")
	ErrInvalidTransition   = NewDomainError(ErrCodeInvalidTransition, "Order status transition is not allowed")
	ErrUnknownBank         = NewDomainError(ErrCodeUnknownBank, "Bank name could not be resolved to a bank code")
	ErrInvalidSignature    = NewDomainError(ErrCodeInvalidSignature, "Notification signature does not match")
)

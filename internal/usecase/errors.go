package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to clients next to the HTTP status.
const (
	CodeEmptyCart            = "EMPTY_CART"
	CodeOutOfStock           = "OUT_OF_STOCK"
	CodeInsufficientStock    = "INSUFFICIENT_STOCK"
	CodeDuplicateOrderNumber = "DUPLICATE_ORDER_NUMBER"
	CodeInvalidOrderState    = "INVALID_ORDER_STATE"
	CodeOrderNotFound        = "ORDER_NOT_FOUND"
	CodeSignatureMismatch    = "SIGNATURE_MISMATCH"
	CodeGatewayError         = "GATEWAY_ERROR"
	CodeValidation           = "VALIDATION"
	CodeInternal             = "INTERNAL"
)

// DomainError is a business failure with a fixed HTTP mapping.
// Anything else bubbling out of a usecase is treated as a 500.
type DomainError struct {
	Status  int
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

func NewDomainError(status int, code string, message string) error {
	return &DomainError{Status: status, Code: code, Message: message}
}

func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	ok := errors.As(err, &de)
	return de, ok
}

func errEmptyCart() error {
	return NewDomainError(http.StatusBadRequest, CodeEmptyCart, "cart is empty")
}

func errOutOfStock(name string) error {
	return NewDomainError(http.StatusBadRequest, CodeOutOfStock,
		fmt.Sprintf("product %q is out of stock", name))
}

func errInsufficientStock(name string, available int64) error {
	return NewDomainError(http.StatusBadRequest, CodeInsufficientStock,
		fmt.Sprintf("only %d of %q left in stock", available, name))
}

// errStockConflict is the reservation-time variant: the conditional decrement
// failed after the initial read, so no accurate remaining count is known.
func errStockConflict(name string) error {
	return NewDomainError(http.StatusBadRequest, CodeInsufficientStock,
		fmt.Sprintf("insufficient stock for %q", name))
}

func errDuplicateOrderNumber(number string) error {
	return NewDomainError(http.StatusBadRequest, CodeDuplicateOrderNumber,
		fmt.Sprintf("order number %s already exists", number))
}

// errInvalidOrderState carries the current and attempted values so the
// caller can see exactly which transition was refused.
func errInvalidOrderState(current string, attempted string) error {
	return NewDomainError(http.StatusBadRequest, CodeInvalidOrderState,
		fmt.Sprintf("cannot move order from %s to %s", current, attempted))
}

func errOrderNotFound() error {
	return NewDomainError(http.StatusNotFound, CodeOrderNotFound, "order not found")
}

func errSignatureMismatch() error {
	return NewDomainError(http.StatusUnauthorized, CodeSignatureMismatch, "invalid signature")
}

func errGateway(msg string) error {
	return NewDomainError(http.StatusBadRequest, CodeGatewayError, msg)
}

func errValidation(msg string) error {
	return NewDomainError(http.StatusBadRequest, CodeValidation, msg)
}

func errInternal() error {
	return NewDomainError(http.StatusInternalServerError, CodeInternal, "internal error")
}

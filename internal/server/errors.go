package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	authdomain "github.com/office562/campbaraisa-sub000/internal/auth/domain"
	camperdomain "github.com/office562/campbaraisa-sub000/internal/camper/domain"
	feedomain "github.com/office562/campbaraisa-sub000/internal/fee/domain"
	invoicedomain "github.com/office562/campbaraisa-sub000/internal/invoice/domain"
	paymentdomain "github.com/office562/campbaraisa-sub000/internal/payment/domain"
	"github.com/office562/campbaraisa-sub000/internal/payment/gateway"
	portaldomain "github.com/office562/campbaraisa-sub000/internal/portal/domain"
)

type apiError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *apiError) Error() string { return e.Message }

var (
	ErrUnauthorized = &apiError{
		Status:  http.StatusUnauthorized,
		Code:    "unauthorized",
		Message: "authentication required",
	}
	ErrNotFound = &apiError{
		Status:  http.StatusNotFound,
		Code:    "not_found",
		Message: "resource not found",
	}
	ErrTooManyRequests = &apiError{
		Status:  http.StatusTooManyRequests,
		Code:    "rate_limited",
		Message: "too many requests",
	}
	ErrServiceUnavailable = &apiError{
		Status:  http.StatusServiceUnavailable,
		Code:    "service_unavailable",
		Message: "service unavailable",
	}
)

func invalidRequestError() *apiError {
	return &apiError{
		Status:  http.StatusBadRequest,
		Code:    "invalid_request",
		Message: "request body is invalid",
	}
}

func newValidationError(field, code, message string) *apiError {
	return &apiError{
		Status:  http.StatusBadRequest,
		Code:    code,
		Field:   field,
		Message: message,
	}
}

func notFoundError(code string) *apiError {
	return &apiError{Status: http.StatusNotFound, Code: code, Message: "resource not found"}
}

func conflictError(code, message string) *apiError {
	return &apiError{Status: http.StatusConflict, Code: code, Message: message}
}

// AbortWithError translates service errors into HTTP responses. Unknown
// errors fall through as a bare 500 so internals never leak.
func AbortWithError(c *gin.Context, err error) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": apiErr})
		return
	}

	if apiErr := mapDomainError(err); apiErr != nil {
		c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": apiErr})
		return
	}

	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": &apiError{
		Code:    "internal",
		Message: "internal server error",
	}})
}

func mapDomainError(err error) *apiError {
	switch {
	case errors.Is(err, authdomain.ErrInvalidCredentials):
		return &apiError{Status: http.StatusUnauthorized, Code: "invalid_credentials", Message: "invalid email or password"}

	case errors.Is(err, feedomain.ErrInvalidName):
		return newValidationError("name", "invalid_name", "name is required")
	case errors.Is(err, feedomain.ErrInvalidAmount):
		return newValidationError("amount", "invalid_amount", "amount must be positive")
	case errors.Is(err, feedomain.ErrFeeNotFound):
		return notFoundError("fee_not_found")
	case errors.Is(err, feedomain.ErrProtectedFee):
		return conflictError("protected_fee", "the default fee cannot be deleted")

	case errors.Is(err, camperdomain.ErrInvalidName):
		return newValidationError("name", "invalid_name", "first and last name are required")
	case errors.Is(err, camperdomain.ErrCamperNotFound):
		return notFoundError("camper_not_found")

	case errors.Is(err, invoicedomain.ErrInvalidCamper):
		return newValidationError("camper_id", "invalid_camper", "camper does not exist")
	case errors.Is(err, invoicedomain.ErrInvalidAmount):
		return newValidationError("custom_amount", "invalid_amount", "custom amount is not allowed")
	case errors.Is(err, invoicedomain.ErrInvalidDiscount):
		return newValidationError("discounts", "invalid_discount", "discount is invalid")
	case errors.Is(err, invoicedomain.ErrNothingToInvoice):
		return newValidationError("fee_ids", "nothing_to_invoice", "select at least one fee or a custom amount")
	case errors.Is(err, invoicedomain.ErrInvoiceNotFound):
		return notFoundError("invoice_not_found")

	case errors.Is(err, paymentdomain.ErrInvalidAmount):
		return newValidationError("amount", "invalid_amount", "amount must be positive")
	case errors.Is(err, paymentdomain.ErrInvalidMethod):
		return newValidationError("method", "invalid_method", "payment method is not supported")
	case errors.Is(err, paymentdomain.ErrPaymentNotFound):
		return notFoundError("payment_not_found")
	case errors.Is(err, paymentdomain.ErrPaymentAlreadySettled):
		return conflictError("payment_already_settled", "payment has already been settled")
	case errors.Is(err, paymentdomain.ErrInvoiceConflict):
		return conflictError("invoice_conflict", "invoice was updated concurrently, retry")

	case errors.Is(err, portaldomain.ErrPortalTokenInvalid):
		return notFoundError("not_found")

	case errors.Is(err, gateway.ErrBadSignature), errors.Is(err, gateway.ErrBadPayload):
		return &apiError{Status: http.StatusBadRequest, Code: "bad_webhook", Message: "webhook rejected"}
	}
	return nil
}

package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes carried in the "error" field of every error response.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeEmptyCart       = "EMPTY_CART"
	CodeOutOfStock      = "OUT_OF_STOCK"
	CodeTooManyRequests = "TOO_MANY_REQUESTS"
	CodeUnavailable     = "SERVICE_UNAVAILABLE"
	CodeInternal        = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Message    string `json:"message"`
	Error      string `json:"error"`
	StatusCode int    `json:"statusCode"`
	Details    any    `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Details any
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error code onto a response status.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case CodeValidation, CodeEmptyCart:
		return fiber.StatusBadRequest
	case CodeUnauthorized:
		return fiber.StatusUnauthorized
	case CodeForbidden:
		return fiber.StatusForbidden
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeConflict, CodeOutOfStock:
		return fiber.StatusConflict
	case CodeTooManyRequests:
		return fiber.StatusTooManyRequests
	case CodeUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
	}
}

func NewEmptyCartError() *AppError {
	return &AppError{
		Code:    CodeEmptyCart,
		Message: "Cart is empty",
	}
}

func NewOutOfStockError(productName string) *AppError {
	return &AppError{
		Code:    CodeOutOfStock,
		Message: fmt.Sprintf("Insufficient stock for %s", productName),
		Details: fiber.Map{"product": productName},
	}
}

func NewUnavailableError(message string) *AppError {
	return &AppError{
		Code:    CodeUnavailable,
		Message: message,
	}
}

func NewTooManyRequestsError(message string) *AppError {
	return &AppError{
		Code:    CodeTooManyRequests,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// IsCode reports whether err wraps an AppError with the given code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// RespondWithError writes the standard error body. Internal causes are never
// serialized.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	response := ErrorResponse{StatusCode: status}

	var appErr *AppError
	if errors.As(err, &appErr) {
		response.Message = appErr.Message
		response.Error = appErr.Code
		if appErr.Code != CodeInternal {
			response.Details = appErr.Details
		}
	} else if status >= fiber.StatusInternalServerError {
		response.Message = "Internal server error"
		response.Error = CodeInternal
	} else {
		response.Message = err.Error()
		response.Error = codeForStatus(status)
	}

	return c.Status(status).JSON(response)
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return CodeValidation
	case fiber.StatusUnauthorized:
		return CodeUnauthorized
	case fiber.StatusForbidden:
		return CodeForbidden
	case fiber.StatusNotFound:
		return CodeNotFound
	case fiber.StatusConflict:
		return CodeConflict
	case fiber.StatusTooManyRequests:
		return CodeTooManyRequests
	default:
		return CodeInternal
	}
}

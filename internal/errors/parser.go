package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is a code plus a user-facing message
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError turns a repository or driver error into a safe code and
// message. context names the operation, e.g. "create order".
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "Something went wrong on our side",
		}
	}

	errStrLower := strings.ToLower(err.Error())

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    notFoundCode(context),
			Message: getNotFoundMessage(context),
		}
	}

	// Postgres 23505 / SQLite UNIQUE
	if strings.Contains(errStrLower, "duplicate key") || strings.Contains(errStrLower, "unique constraint") {
		return parseDuplicateKeyError(errStrLower)
	}

	// Postgres 23503
	if strings.Contains(errStrLower, "foreign key constraint") {
		if strings.Contains(errStrLower, "still referenced") {
			return ErrorInfo{Code: ResourceConflict, Message: "This record is still in use and cannot be deleted"}
		}
		return ErrorInfo{Code: ResourceNotFound, Message: "A referenced record does not exist"}
	}

	// Postgres 23502 / SQLite NOT NULL
	if strings.Contains(errStrLower, "not-null constraint") || strings.Contains(errStrLower, "not null constraint") {
		return ErrorInfo{Code: ValidationRequired, Message: "A required field is missing"}
	}

	if strings.Contains(errStrLower, "check constraint") {
		return ErrorInfo{Code: ValidationInvalidInput, Message: "A value is out of range"}
	}

	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "A dependent service is unavailable. Please try again shortly",
		}
	}

	return ErrorInfo{
		Code:    InternalServerError,
		Message: getDefaultErrorMessage(context),
	}
}

func parseDuplicateKeyError(errLower string) ErrorInfo {
	if strings.Contains(errLower, "payment_checkout_id") {
		return ErrorInfo{Code: ResourceConflict, Message: "This payment is already linked to another order"}
	}
	if strings.Contains(errLower, "products") {
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "A product with this id already exists"}
	}
	return ErrorInfo{Code: ResourceAlreadyExists, Message: "This record already exists"}
}

func notFoundCode(context string) string {
	contextLower := strings.ToLower(context)
	switch {
	case strings.Contains(contextLower, "product"):
		return ProductNotFound
	case strings.Contains(contextLower, "course"):
		return CourseNotFound
	case strings.Contains(contextLower, "booking"):
		return BookingNotFound
	case strings.Contains(contextLower, "order"):
		return OrderNotFound
	}
	return ResourceNotFound
}

func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "product") {
		return "Product not found"
	}
	if strings.Contains(contextLower, "course") {
		return "Course not found"
	}
	if strings.Contains(contextLower, "booking") {
		return "Booking not found"
	}
	if strings.Contains(contextLower, "order") {
		return "Order not found"
	}

	return "The requested record was not found"
}

func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "create") {
		return "Could not save your request. Please try again shortly"
	}
	if strings.Contains(contextLower, "update") {
		return "Could not apply the update. Please try again shortly"
	}
	if strings.Contains(contextLower, "export") {
		return "Could not generate the export. Please try again shortly"
	}

	return "Something went wrong on our side. Please try again shortly"
}

// ParseAndRespond parses err and writes it as an ErrorResponse
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	errorInfo := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   errorInfo.Code,
		Message: errorInfo.Message,
	})
}

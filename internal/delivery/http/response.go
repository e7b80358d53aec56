package http

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"stockwizard/internal/domain"
)

// Response represents a standardized API response
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

// SuccessResponse sends a success response
func SuccessResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Response{
		Status: "success",
		Data:   data,
	})
}

// SuccessMessageResponse sends a success response with a message
func SuccessMessageResponse(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, Response{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

// CreatedResponse sends a 201 Created response
func CreatedResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, Response{
		Status: "success",
		Data:   data,
	})
}

// ErrorResponse sends an error response
func ErrorResponse(c echo.Context, statusCode int, message string, err interface{}) error {
	return c.JSON(statusCode, Response{
		Status:  "error",
		Message: message,
		Error:   err,
	})
}

// BadRequestResponse sends a 400 Bad Request response
func BadRequestResponse(c echo.Context, message string) error {
	return ErrorResponse(c, http.StatusBadRequest, message, nil)
}

// UnauthorizedResponse sends a 401 Unauthorized response
func UnauthorizedResponse(c echo.Context, message string) error {
	return ErrorResponse(c, http.StatusUnauthorized, message, nil)
}

// ConflictResponse sends a 409 Conflict response
func ConflictResponse(c echo.Context, message string) error {
	return ErrorResponse(c, http.StatusConflict, message, nil)
}

// NotFoundResponse sends a 404 Not Found response
func NotFoundResponse(c echo.Context, message string) error {
	return ErrorResponse(c, http.StatusNotFound, message, nil)
}

// InternalServerErrorResponse sends a 500 Internal Server Error response
func InternalServerErrorResponse(c echo.Context, message string, err error) error {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	return ErrorResponse(c, http.StatusInternalServerError, message, errMsg)
}

// DomainErrorResponse maps a domain error to its HTTP status. The message
// is the text the client shows as a notification.
func DomainErrorResponse(c echo.Context, err error, fallback string) error {
	switch {
	case errors.Is(err, domain.ErrAuthRequired):
		return UnauthorizedResponse(c, errorDetail(err, domain.ErrAuthRequired, "Authentication required"))
	case errors.Is(err, domain.ErrAlreadyTracked):
		return ConflictResponse(c, errorDetail(err, domain.ErrAlreadyTracked, "Already in your watchlist"))
	case errors.Is(err, domain.ErrValidationFailed):
		return BadRequestResponse(c, errorDetail(err, domain.ErrValidationFailed, "Invalid request"))
	case errors.Is(err, domain.ErrNotFound):
		return NotFoundResponse(c, errorDetail(err, domain.ErrNotFound, "Not found"))
	case errors.Is(err, domain.ErrSyncFailed):
		log.Printf("[WARN] %s: %v", fallback, err)
		return ErrorResponse(c, http.StatusBadGateway, fallback+". Please try again.", nil)
	default:
		log.Printf("ERROR: %s: %v", fallback, err)
		return InternalServerErrorResponse(c, fallback, err)
	}
}

// errorDetail returns the text wrapped after sentinel, capitalized, or
// fallback when there is none.
func errorDetail(err, sentinel error, fallback string) string {
	_, detail, ok := strings.Cut(err.Error(), sentinel.Error()+": ")
	if !ok || detail == "" {
		return fallback
	}
	return strings.ToUpper(detail[:1]) + detail[1:]
}

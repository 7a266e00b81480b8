// Package response provides standardized HTTP response structures and helpers
// for the toolcatalog API server. All API responses follow a consistent format
// with a data field for successful responses and an error field for failures.
package response

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/siteoptz/toolcatalog/pkg/errors"
)

// Response represents the standardized API response structure.
type Response struct {
	Data  any    `json:"data"`
	Error *Error `json:"error"`
}

// Error represents an API error with code, message, and optional details.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Success creates a successful response with data.
func Success(data any) Response {
	return Response{Data: data}
}

// Fail creates an error response.
func Fail(code, message, details string) Response {
	return Response{
		Error: &Error{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// OK writes a successful response with 200 status.
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Success(data))
}

// BadRequest writes a 400 error response.
func BadRequest(c *gin.Context, message, details string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Fail("BAD_REQUEST", message, details))
}

// NotFound writes a 404 error response.
func NotFound(c *gin.Context, message, details string) {
	c.AbortWithStatusJSON(http.StatusNotFound, Fail("NOT_FOUND", message, details))
}

// TooLarge writes a 413 error response.
func TooLarge(c *gin.Context, limit int64) {
	c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, Fail(
		"PAYLOAD_TOO_LARGE",
		"Request body too large",
		fmt.Sprintf("Request bodies are limited to %d bytes", limit),
	))
}

// InternalError writes a 500 error response without exposing err.
func InternalError(c *gin.Context, _ error) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, Fail(
		"INTERNAL_ERROR",
		"Internal server error",
		"An unexpected error occurred",
	))
}

// ServiceUnavailable writes a 503 error response.
func ServiceUnavailable(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, Fail(
		"SERVICE_UNAVAILABLE",
		"Service unavailable",
		message,
	))
}

// ErrorFromType maps typed errors to appropriate HTTP responses.
func ErrorFromType(c *gin.Context, err error) {
	var (
		notFound   *errors.NotFoundError
		validation *errors.ValidationError
		parse      *errors.ParseError
		maxBytes   *http.MaxBytesError
	)
	switch {
	case errors.As(err, &maxBytes):
		TooLarge(c, maxBytes.Limit)
	case errors.As(err, &validation):
		BadRequest(c, validation.Error(), "")
	case errors.As(err, &parse):
		BadRequest(c, parse.Error(), "")
	case errors.As(err, &notFound):
		NotFound(c, notFound.Error(), "")
	case errors.IsClosed(err):
		ServiceUnavailable(c, "Catalog store is closed")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		ServiceUnavailable(c, err.Error())
	default:
		InternalError(c, err)
	}
}

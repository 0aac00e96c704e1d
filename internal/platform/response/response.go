// Package response writes the JSON envelope shared by every endpoint.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/port-russell/service-marina/internal/platform/domain"
)

const internalErrorMessage = "internal server error"

// Envelope is the body of every JSON response.
type Envelope struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Message    string      `json:"message,omitempty"`
	Count      *int        `json:"count,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination describes the page returned by a list endpoint.
type Pagination struct {
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// Success writes 200 with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes 201 with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Message writes 200 with a message and no data.
func Message(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: msg})
}

// List writes 200 with an unpaginated collection and its count.
func List[T any](c *gin.Context, items []T) {
	if items == nil {
		items = []T{}
	}
	n := len(items)
	c.JSON(http.StatusOK, Envelope{Success: true, Data: items, Count: &n})
}

// Paginated writes 200 with one page of a collection.
func Paginated[T any](c *gin.Context, result domain.PaginatedResult[T]) {
	n := len(result.Items)
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    result.Items,
		Count:   &n,
		Pagination: &Pagination{
			Page:  result.Page,
			Pages: result.Pages,
			Limit: result.Limit,
			Total: result.Total,
		},
	})
}

// BadRequest writes 400 with msg.
func BadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Envelope{Success: false, Message: msg})
}

// Unauthorized writes 401 with msg.
func Unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Envelope{Success: false, Message: msg})
}

// Forbidden writes 403 with msg.
func Forbidden(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusForbidden, Envelope{Success: false, Message: msg})
}

// Error maps err to a status code. Domain errors keep their message; anything
// else is attached to the gin context for the request logger and answered with
// a generic 500.
func Error(c *gin.Context, err error) {
	status, msg := StatusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, Envelope{Success: false, Message: msg})
}

// StatusFor returns the HTTP status and client-safe message for err.
func StatusFor(err error) (int, string) {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		return http.StatusInternalServerError, internalErrorMessage
	}
	switch de.Code {
	case domain.CodeNotFound:
		return http.StatusNotFound, de.Message
	case domain.CodeValidation, domain.CodeConflict:
		return http.StatusBadRequest, de.Message
	case domain.CodeUnauthorized:
		return http.StatusUnauthorized, de.Message
	case domain.CodeForbidden:
		return http.StatusForbidden, de.Message
	default:
		return http.StatusInternalServerError, internalErrorMessage
	}
}

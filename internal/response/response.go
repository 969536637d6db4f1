// Package response maps service results and domain errors to HTTP
// responses. Every AppError kind maps to a stable status and code so
// callers can tell retry-now (lock timeout), retry-later (unavailable) and
// give-up (validation, conflict, authorization) apart.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/staybook/service-stays/internal/domain"
)

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// OK writes a 200 response with the payload.
func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

// Created writes a 201 response with the payload.
func Created(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusCreated, payload)
}

// NoContent writes a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest writes a 400 with a generic validation code.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, errorBody{
		Code:    domain.CodeValidation,
		Message: message,
	})
}

// Error writes the response for a service error. Unknown errors become
// opaque 500s.
func Error(c *gin.Context, err error) {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus(), errorBody{
			Code:      appErr.Code,
			Message:   appErr.Message,
			Retryable: appErr.Retryable(),
		})
		return
	}
	c.JSON(http.StatusInternalServerError, errorBody{
		Code:    "INTERNAL",
		Message: "internal server error",
	})
}

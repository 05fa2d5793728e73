package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jakechorley/clinic-cover/pkg/core/coverage"
)

// Error codes carried in the envelope alongside the HTTP status
const (
	CodeOK                 = "OK"
	CodeBadRequest         = "BAD_REQUEST"
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeAlreadyCovered     = "ALREADY_COVERED"
	CodeSelfCoverage       = "SELF_COVERAGE"
	CodeHasCoveredSessions = "HAS_COVERED_SESSIONS"
	CodeNotCovered         = "NOT_COVERED"
	CodeInternal           = "INTERNAL"
)

// Response is the envelope every endpoint replies with
type Response struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// OK 200
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: CodeOK, Message: "success", Data: data})
}

// Created 201
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{Code: CodeOK, Message: "success", Data: data})
}

// Error writes an error envelope and aborts the chain
func Error(c *gin.Context, httpStatus int, code, message string) {
	c.AbortWithStatusJSON(httpStatus, Response{Code: code, Message: message})
}

// BadRequest 400
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, CodeBadRequest, message)
}

// Unauthenticated 401
func Unauthenticated(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, CodeUnauthenticated, message)
}

// Forbidden 403
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, CodeForbidden, message)
}

// FromError maps a service error onto its HTTP status. Unknown errors become a
// 500 with a generic message; the detail is attached to the context for the logger.
func FromError(c *gin.Context, err error) {
	status, code := Classify(err)
	if status == http.StatusInternalServerError {
		c.Error(err)
		Error(c, status, code, "internal server error")
		return
	}
	Error(c, status, code, err.Error())
}

// Classify returns the HTTP status and envelope code for an error
func Classify(err error) (int, string) {
	switch {
	case errors.Is(err, coverage.ErrInvalidRequest):
		return http.StatusBadRequest, CodeBadRequest
	case errors.Is(err, coverage.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, coverage.ErrAlreadyCovered):
		return http.StatusConflict, CodeAlreadyCovered
	case errors.Is(err, coverage.ErrSelfCoverage):
		return http.StatusUnprocessableEntity, CodeSelfCoverage
	case errors.Is(err, coverage.ErrUnauthorized):
		return http.StatusForbidden, CodeForbidden
	case errors.Is(err, coverage.ErrHasCoveredSessions):
		return http.StatusConflict, CodeHasCoveredSessions
	case errors.Is(err, coverage.ErrNotCovered):
		return http.StatusConflict, CodeNotCovered
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

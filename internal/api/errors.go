package api

import (
	"alcyxob/gym-membership/internal/scan"
	"alcyxob/gym-membership/internal/service"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondError maps a service error to its HTTP status. Unrecognised errors
// are logged and reported as 500 without leaking their text.
func respondError(c *gin.Context, err error) {
	var conflict *service.ConflictError
	switch {
	case errors.As(err, &conflict):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"conflicts": conflict.Report,
		})
	case errors.Is(err, scan.ErrMalformedPayload):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrAuthenticationFailed):
		abortWithError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidTransition):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPermission):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrDuplicate):
		abortWithError(c, http.StatusConflict, err.Error())
	default:
		log.Printf("ERROR: %s %s: %v", c.Request.Method, c.FullPath(), err)
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

// bindJSON binds the request body, aborting with 400 on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return false
	}
	return true
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplace/sellerhub/internal/auth"
	"marketplace/sellerhub/internal/marketplace"
	"marketplace/sellerhub/internal/places"
	"marketplace/sellerhub/internal/services"
	"marketplace/sellerhub/internal/validation"
	"marketplace/sellerhub/internal/verification"
)

// respondError maps service errors onto HTTP responses.
func respondError(c *gin.Context, err error) {
	var (
		fieldErrs   validation.FieldErrors
		invalid     *verification.ValidationError
		incomplete  *services.IncompleteError
		unavailable *verification.ServiceUnavailableError
		apiErr      *marketplace.APIError
	)

	switch {
	case errors.As(err, &fieldErrs):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Validation failed", "fields": fieldErrs})
	case errors.As(err, &invalid):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": invalid.Message, "field": invalid.Field})
	case errors.As(err, &incomplete):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Registration incomplete", "steps": incomplete.Steps})
	case errors.Is(err, auth.ErrWeakPassword):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "field": "password"})
	case errors.As(err, &unavailable):
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Verification service unavailable, please try again"})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
	case errors.Is(err, services.ErrVerificationInFlight),
		errors.Is(err, services.ErrAlreadyVerified),
		errors.Is(err, services.ErrAlreadySubmitted),
		errors.Is(err, services.ErrEmailExists),
		errors.Is(err, services.ErrStepLocked),
		errors.Is(err, services.ErrNotOnboarded):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrSellerNotFound),
		errors.Is(err, services.ErrUnknownSection),
		errors.Is(err, services.ErrUnknownStep),
		errors.Is(err, marketplace.ErrNotFound),
		errors.Is(err, places.ErrNoResults):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &apiErr):
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": apiErr.Message})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// bindJSON decodes the request body, answering 400 on malformed input.
func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return false
	}
	return true
}

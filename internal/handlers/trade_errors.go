package handlers

import (
	"errors"
	"net/http"

	"tradeAdmin/internal/models"
	"tradeAdmin/internal/services"
)

// tradeErrorStatus maps a store or form error onto an HTTP status.
func tradeErrorStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrMissingID), errors.Is(err, models.ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNoRecord):
		return http.StatusNotFound
	}
	var apiErr *services.TradeAPIError
	if errors.As(err, &apiErr) && !apiErr.CredentialsRefused() {
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return apiErr.StatusCode
		}
	}
	return http.StatusBadGateway
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/intentlab/intent-backend/internal/services"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondServiceError maps the service error taxonomy onto HTTP statuses:
// missing resources to 404, ownership to 403, conflicts and bad input to 400,
// everything else (gateway failures included) to 500.
func RespondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrIntentNotFound):
		RespondError(c, http.StatusNotFound, "intent_not_found", err)
	case errors.Is(err, services.ErrListingNotFound):
		RespondError(c, http.StatusNotFound, "listing_not_found", err)
	case errors.Is(err, services.ErrNotOwner):
		RespondError(c, http.StatusForbidden, "not_owner", err)
	case errors.Is(err, services.ErrInvalidStatus):
		RespondError(c, http.StatusBadRequest, "invalid_status", err)
	case errors.Is(err, services.ErrEmailTaken):
		RespondError(c, http.StatusBadRequest, "email_taken", err)
	case errors.Is(err, services.ErrAlreadyListed):
		RespondError(c, http.StatusBadRequest, "already_listed", err)
	case errors.Is(err, services.ErrSelfPurchase):
		RespondError(c, http.StatusBadRequest, "self_purchase", err)
	case errors.Is(err, services.ErrListingUnavailable):
		RespondError(c, http.StatusBadRequest, "listing_unavailable", err)
	case errors.Is(err, services.ErrInvalidCredentials):
		RespondError(c, http.StatusUnauthorized, "invalid_credentials", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal_error", err)
	}
}

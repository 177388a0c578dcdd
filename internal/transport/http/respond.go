package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"learnhub-service/internal/app"
	"learnhub-service/internal/domain"
)

type apiError struct {
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

// deniedEnvelope tells the client where to upgrade and what it resumes at.
type deniedEnvelope struct {
	Error    apiError               `json:"error"`
	Redirect string                 `json:"redirect"`
	Pending  domain.PendingResource `json:"pending"`
}

const subscriptionRequiredPath = "/api/subscription/required"

func abortWith(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, errorEnvelope{Error: apiError{Message: msg, Code: code}})
}

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusBadRequest, errorEnvelope{Error: apiError{
			Message: verr.Error(),
			Code:    "validation_failed",
			Fields:  verr.Fields,
		}})
	case errors.Is(err, domain.ErrNotFound):
		abortWith(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrProfileMissing):
		abortWith(c, http.StatusConflict, "profile_missing", err.Error())
	case errors.Is(err, domain.ErrUsernameTaken), errors.Is(err, domain.ErrSlugTaken):
		abortWith(c, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		abortWith(c, http.StatusUnauthorized, "invalid_credentials", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		abortWith(c, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, domain.ErrPaymentDeclined):
		abortWith(c, http.StatusPaymentRequired, "payment_declined", err.Error())
	case errors.Is(err, domain.ErrPaymentUnavailable):
		abortWith(c, http.StatusBadGateway, "payment_unavailable", "payment gateway unavailable")
	default:
		_ = c.Error(err)
		abortWith(c, http.StatusInternalServerError, "internal", "internal server error")
	}
}

// respondGated writes payload when the premium gate let the caller through and
// a subscription-required answer otherwise.
func respondGated(c *gin.Context, status int, decision app.Decision, err error, payload any) {
	if err != nil {
		respondError(c, err)
		return
	}
	if !decision.Allowed {
		c.AbortWithStatusJSON(http.StatusForbidden, deniedEnvelope{
			Error:    apiError{Message: "premium subscription required", Code: "subscription_required"},
			Redirect: subscriptionRequiredPath,
			Pending:  decision.Pending,
		})
		return
	}
	c.JSON(status, payload)
}

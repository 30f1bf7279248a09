package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/recapio/recapio-backend/internal/apierr"
)

type APIError struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	Required  int    `json:"required,omitempty"`
	Available int    `json:"available,omitempty"`
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

// RespondAPIError maps the service error taxonomy onto the wire. A
// credit shortfall additionally carries the (required, available) pair.
func RespondAPIError(c *gin.Context, err error) {
	var ce *apierr.CreditsError
	if errors.As(err, &ce) {
		c.JSON(http.StatusPaymentRequired, ErrorEnvelope{
			Error: APIError{
				Message:   ce.Error(),
				Code:      "insufficient_credits",
				Required:  ce.Required,
				Available: ce.Available,
			},
		})
		return
	}
	RespondError(c, apierr.StatusOf(err), apierr.CodeOf(err), err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/inboxpilot/mailsync/dto"
	"github.com/inboxpilot/mailsync/interfaces"
	engineErrors "github.com/inboxpilot/mailsync/internal/errors"
	"github.com/inboxpilot/mailsync/internal/tracing"
)

// SendEmail delivers a message through a stored credential. Transport
// failures are reported to the caller with the failed log entry; the entry
// exists on both outcomes.
func SendEmail(sender interfaces.EmailSender, credentialRepo interfaces.CredentialRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := tracing.StartTracerSpan(c.Request.Context(), "SendEmail")
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request dto.SendEmailRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		tracing.LogObjectAsJson(span, "request", request)

		if request.CredentialID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "credentialId is required"})
			return
		}

		credential, err := credentialRepo.GetByID(ctx, request.CredentialID)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if credential == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "credential not found"})
			return
		}

		entry, err := sender.Send(ctx, credential, &request.OutboundEmail, request.SendContext)
		if err != nil {
			tracing.TraceErr(span, err)
			switch {
			case errors.Is(err, engineErrors.ErrTransportFailed):
				c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "entry": entry})
			case errors.Is(err, engineErrors.ErrMissingCredentials):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			}
			return
		}

		c.JSON(http.StatusCreated, gin.H{"status": "sent", "entry": entry})
	}
}

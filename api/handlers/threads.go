package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inboxpilot/mailsync/interfaces"
	"github.com/inboxpilot/mailsync/internal/tracing"
)

// GetThread returns every log entry of a thread, oldest first.
func GetThread(emailLogRepo interfaces.EmailLogRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := tracing.StartTracerSpan(c.Request.Context(), "GetThread")
		defer span.Finish()
		tracing.TagComponentRest(span)

		threadID := c.Param("id")
		tracing.TagEntity(span, threadID)

		entries, err := emailLogRepo.ListByThread(ctx, threadID, 0)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if len(entries) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "thread not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"threadId": threadID, "entries": entries})
	}
}

// GetEmail returns a single log entry by id.
func GetEmail(emailLogRepo interfaces.EmailLogRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := tracing.StartTracerSpan(c.Request.Context(), "GetEmail")
		defer span.Finish()
		tracing.TagComponentRest(span)

		id := c.Param("id")
		tracing.TagEntity(span, id)

		entry, err := emailLogRepo.GetByID(ctx, id)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if entry == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "email not found"})
			return
		}

		c.JSON(http.StatusOK, entry)
	}
}

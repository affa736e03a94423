package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"interview-backend/internal/shared/server/respond"
	"interview-backend/internal/shared/telemetry"
)

// Recovery turns a handler panic into the standard 500 envelope. Session
// state is only mutated through the store lock, so a panicking request
// leaves no partial answer behind.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, rec any) {
		fields := map[string]any{
			"request_id": RequestIDFromContext(c),
			"error":      rec,
			"route":      c.FullPath(),
			"method":     c.Request.Method,
			"stack":      string(debug.Stack()),
		}
		if id := c.Param("id"); id != "" {
			fields["candidate_id"] = id
		}
		telemetry.Error("http.panic", fields)
		respond.Error(c, http.StatusInternalServerError, "internal_error", "Unexpected server error", nil)
	})
}

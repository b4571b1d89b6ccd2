package daemon

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docmatch/internal/logging"
)

const requestIDHeader = "X-Request-ID"

// requestContext tags each request with a request ID, echoes it in the
// response, and logs completion at debug level.
func requestContext(logger *slog.Logger) gin.HandlerFunc {
	logger = logging.NewComponentLogger(logger, "http")
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)
		ctx := logging.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()

		logging.WithContext(ctx, logger).Debug("request handled",
			logging.String("method", c.Request.Method),
			logging.String("path", c.FullPath()),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("elapsed", time.Since(start)),
		)
	}
}

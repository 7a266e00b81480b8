package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/siteoptz/toolcatalog/internal/server/response"
	"github.com/siteoptz/toolcatalog/pkg/logging"
)

// requestLogger logs requests with structured logging and puts a request
// scoped logger into the request context.
func requestLogger(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		reqLogger := logger.With().
			Str("method", c.Request.Method).
			Str("path", path).
			Str("remote_addr", c.ClientIP()).
			Logger()
		c.Request = c.Request.WithContext(logging.WithLogger(c.Request.Context(), &reqLogger))

		c.Next()

		event := logger.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = logger.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("duration_ms", time.Since(start)).
			Msg("HTTP request")
	}
}

// recovery turns panics into 500 responses.
func recovery(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error().
					Interface("panic", err).
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Msg("Panic recovered")
				response.InternalError(c, nil)
			}
		}()
		c.Next()
	}
}

// bodyLimit caps request bodies at n bytes.
func bodyLimit(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if n > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}

package observability

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Keys admin handlers set on the gin context for the request log.
const (
	// KeyAuth holds AuthOpen, AuthBearer or AuthDenied.
	KeyAuth = "shiftd.auth"
	// KeySchemas holds the schema names a handler reported.
	KeySchemas = "shiftd.schemas"
)

const (
	AuthOpen   = "open"
	AuthBearer = "bearer"
	AuthDenied = "denied"
)

// RequestLogger logs one line per admin request, including how the request
// was authorized and which schemas it reported.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := logger.Info()
		switch {
		case status >= 500:
			event = logger.Error()
		case c.GetString(KeyAuth) == AuthDenied, status >= 400:
			event = logger.Warn()
		}

		auth := c.GetString(KeyAuth)
		if auth == "" {
			auth = AuthOpen
		}
		event = event.
			Str("method", c.Request.Method).
			Str("path", routePath(c)).
			Int("status", status).
			Str("auth", auth).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP())
		if schemas := c.GetStringSlice(KeySchemas); len(schemas) > 0 {
			event = event.Strs("schemas", schemas)
		}
		event.Msg("admin.request")
	}
}

// RequestMetricsMiddleware records every admin request and counts bearer
// rejections separately.
func RequestMetricsMiddleware(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := routePath(c)
		RecordHTTPRequest(service, c.Request.Method, path, c.Writer.Status(), time.Since(start))
		if c.GetString(KeyAuth) == AuthDenied {
			RecordAdminDenied(service, path)
		}
	}
}

func routePath(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return c.Request.URL.Path
}

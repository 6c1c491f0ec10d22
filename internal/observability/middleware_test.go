package observability

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/danmuck/shiftctl/internal/testutil/testlog"
)

func adminEngine(t *testing.T, buf *bytes.Buffer) *gin.Engine {
	t.Helper()
	prevLevel := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	t.Cleanup(func() { zerolog.SetGlobalLevel(prevLevel) })
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(zerolog.New(buf)))
	r.Use(RequestMetricsMiddleware("shiftd-test"))
	r.GET("/schemas", func(c *gin.Context) {
		c.Set(KeyAuth, AuthBearer)
		c.Set(KeySchemas, []string{"v1", "v2"})
		c.Status(http.StatusOK)
	})
	r.GET("/metrics", func(c *gin.Context) {
		c.Set(KeyAuth, AuthDenied)
		c.AbortWithStatus(http.StatusUnauthorized)
	})
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func serveLogged(t *testing.T, r *gin.Engine, buf *bytes.Buffer, path string) map[string]any {
	t.Helper()
	buf.Reset()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestRequestLoggerReportsAuthAndSchemas(t *testing.T) {
	testlog.Start(t)
	var buf bytes.Buffer
	r := adminEngine(t, &buf)

	line := serveLogged(t, r, &buf, "/schemas")
	require.Equal(t, "admin.request", line["message"])
	require.Equal(t, AuthBearer, line["auth"])
	require.Equal(t, []any{"v1", "v2"}, line["schemas"])
	require.Equal(t, "info", line["level"])

	line = serveLogged(t, r, &buf, "/metrics")
	require.Equal(t, AuthDenied, line["auth"])
	require.Equal(t, "warn", line["level"])
	require.NotContains(t, line, "schemas")

	line = serveLogged(t, r, &buf, "/health")
	require.Equal(t, AuthOpen, line["auth"])
}

func TestDeniedRequestsAreCounted(t *testing.T) {
	testlog.Start(t)
	var buf bytes.Buffer
	r := adminEngine(t, &buf)

	denied := adminDenied.WithLabelValues("shiftd-test", "/metrics")
	before := counterValue(t, denied)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, before+1, counterValue(t, denied))

	ok := adminDenied.WithLabelValues("shiftd-test", "/schemas")
	beforeOK := counterValue(t, ok)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/schemas", nil))
	require.Equal(t, beforeOK, counterValue(t, ok))
}

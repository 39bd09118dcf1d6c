package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/api/things/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	before := testutil.ToFloat64(HTTPRequests.WithLabelValues(http.MethodGet, "/api/things/:id", "418"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/things/42", nil))
	after := testutil.ToFloat64(HTTPRequests.WithLabelValues(http.MethodGet, "/api/things/:id", "418"))

	assert.Equal(t, before+1, after)
}

func TestObserveProvider(t *testing.T) {
	before := testutil.ToFloat64(ProviderCalls.WithLabelValues("google", OutcomeError))
	ObserveProvider("google", OutcomeError, 10*time.Millisecond, 0)
	assert.Equal(t, before+1, testutil.ToFloat64(ProviderCalls.WithLabelValues("google", OutcomeError)))
}

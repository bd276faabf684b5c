package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordTransition(t *testing.T) {
	before := testutil.ToFloat64(lifecycleTransitions.WithLabelValues("application", "pending", "accepted"))
	RecordTransition("application", "pending", "accepted")
	after := testutil.ToFloat64(lifecycleTransitions.WithLabelValues("application", "pending", "accepted"))
	assert.Equal(t, before+1, after)
}

func TestGinMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/opportunities/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/opportunities/123", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, float64(1), testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/opportunities/:id", "204")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "impactlink_http_requests_total"))
}

type fakePool struct{ total, idle, acquired int32 }

func (p fakePool) TotalConns() int32    { return p.total }
func (p fakePool) IdleConns() int32     { return p.idle }
func (p fakePool) AcquiredConns() int32 { return p.acquired }

func TestRegisterPoolStats(t *testing.T) {
	pool := fakePool{total: 4, idle: 3, acquired: 1}
	require.NoError(t, RegisterPoolStats(func() PoolStats { return pool }))

	body := scrape(t)
	assert.Contains(t, body, "impactlink_db_pool_total_connections 4")
	assert.Contains(t, body, "impactlink_db_pool_acquired_connections 1")

	assert.Error(t, RegisterPoolStats(func() PoolStats { return pool }), "gauges register once")
}

func scrape(t *testing.T) string {
	t.Helper()
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

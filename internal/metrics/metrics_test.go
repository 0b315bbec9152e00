package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveBackfill(t *testing.T) {
	m := New()
	m.ObserveBackfill(3, 1)
	m.ObserveBackfill(0, 0)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.AgesBackfilled))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackfillFailures))
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)
	m := New()
	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/contacts/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	for i := 0; i < 2; i++ {
		recorder := httptest.NewRecorder()
		request, _ := http.NewRequest("GET", "/contacts/42", nil)
		router.ServeHTTP(recorder, request)
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET", "/contacts/:id", "404")))

	recorder := httptest.NewRecorder()
	request, _ := http.NewRequest("GET", "/metrics", nil)
	router.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "contacts_http_requests_total")
	assert.Contains(t, recorder.Body.String(), "go_goroutines")
}

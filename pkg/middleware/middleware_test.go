package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"user-service/pkg/errors"
	"user-service/pkg/logger"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	Default(r, logger.NewNop(), "/health")
	return r
}

func TestTraceID_PropagatesCallerHeader(t *testing.T) {
	r := newRouter()
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, logger.GetTraceID(c.Request.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(TraceIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(TraceIDHeader))
}

func TestTraceID_GeneratesWhenMissing(t *testing.T) {
	r := newRouter()
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Len(t, w.Header().Get(TraceIDHeader), 36)
}

func TestErrorHandler_WritesEnvelope(t *testing.T) {
	r := newRouter()
	r.GET("/missing", func(c *gin.Context) {
		c.Error(errors.NewNotFound("user", 7))
	})

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set(TraceIDHeader, "t-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	var body errors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, errors.CodeNotFound, body.Error.Code)
	assert.Equal(t, "t-1", body.TraceID)
}

func TestErrorHandler_HidesInternalCause(t *testing.T) {
	r := newRouter()
	r.GET("/boom", func(c *gin.Context) {
		c.Error(errors.NewInternal("query users", assert.AnError))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
	assert.Contains(t, w.Body.String(), errors.CodeInternal)
}

func TestErrorHandler_RecoversPanic(t *testing.T) {
	r := newRouter()
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), errors.CodeInternal)
}

func TestCORS_Preflight(t *testing.T) {
	r := newRouter()
	r.GET("/users", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/users", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

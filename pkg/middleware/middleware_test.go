package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-service/pkg/errors"
	"github.com/wms-platform/fulfillment-service/pkg/logging"
	"github.com/wms-platform/fulfillment-service/pkg/metrics"
)

type colour string

type paintRequest struct {
	Colour string `json:"colour" binding:"required,test_colour"`
	Coats  int    `json:"coats" binding:"min=1"`
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	RegisterEnum("test_colour", colour("RED"), colour("BLUE"))

	router := gin.New()
	Setup(router, DefaultConfig("test", logging.NewNop(), metrics.New(metrics.DefaultConfig("test"))))
	return router
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) APIErrorResponse {
	t.Helper()
	var body APIErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestErrorHandler_RendersAppError(t *testing.T) {
	router := newRouter(t)
	router.GET("/conflict", WrapHandler(func(c *gin.Context) error {
		return errors.ErrConflict("already validated")
	}))
	router.GET("/plain", WrapHandler(func(c *gin.Context) error {
		return stderrors.New("write conflict")
	}))

	w := serve(router, httptest.NewRequest(http.MethodGet, "/conflict", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, errors.CodeConflict, body.Code)
	assert.Equal(t, "/conflict", body.Path)
	assert.NotEmpty(t, body.RequestID)

	w = serve(router, httptest.NewRequest(http.MethodGet, "/plain", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, errors.CodeTransactionFailure, decodeError(t, w).Code)
}

func TestRecovery(t *testing.T) {
	router := newRouter(t)
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := serve(router, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, errors.CodeInternalError, decodeError(t, w).Code)
}

func TestRequestAndCorrelationIDs(t *testing.T) {
	router := newRouter(t)
	var seen context.Context
	router.GET("/ids", func(c *gin.Context) {
		seen = c.Request.Context()
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ids", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	req.Header.Set(HeaderCECorrelationID, "corr-ce")
	w := serve(router, req)

	assert.Equal(t, "req-1", w.Header().Get(HeaderRequestID))
	assert.Equal(t, "corr-ce", w.Header().Get(HeaderCorrelationID))
	require.NotNil(t, seen)
	assert.Equal(t, "req-1", seen.Value(logging.RequestIDKey))
	assert.Equal(t, "corr-ce", seen.Value(logging.CorrelationIDKey))
}

func TestBindJSON(t *testing.T) {
	router := newRouter(t)
	router.POST("/paint", WrapHandler(func(c *gin.Context) error {
		var req paintRequest
		if err := BindJSON(c, &req); err != nil {
			return err
		}
		c.JSON(http.StatusOK, req)
		return nil
	}))

	tests := []struct {
		name    string
		body    string
		status  int
		details map[string]string
	}{
		{"valid", `{"colour":"RED","coats":2}`, http.StatusOK, nil},
		{"unknown enum", `{"colour":"GREEN","coats":2}`, http.StatusBadRequest, map[string]string{"colour": "must be one of: RED BLUE"}},
		{"missing field", `{"coats":2}`, http.StatusBadRequest, map[string]string{"colour": "is required"}},
		{"below min", `{"colour":"BLUE","coats":0}`, http.StatusBadRequest, map[string]string{"coats": "must be at least 1"}},
		{"malformed", `{"colour":`, http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/paint", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := serve(router, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.details != nil {
				assert.Equal(t, tt.details, decodeError(t, w).Details)
			}
		})
	}
}

func TestReadinessCheck(t *testing.T) {
	router := newRouter(t)
	router.GET("/ready", ReadinessCheck("test", map[string]func(context.Context) error{
		"mongodb": func(context.Context) error { return nil },
		"redis":   func(context.Context) error { return stderrors.New("connection refused") },
	}))

	w := serve(router, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
	assert.NotContains(t, w.Body.String(), "mongodb")
}

func TestNoRouteAndNoMethod(t *testing.T) {
	router := newRouter(t)
	router.GET("/only-get", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(router, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ROUTE_NOT_FOUND", decodeError(t, w).Code)

	w = serve(router, httptest.NewRequest(http.MethodPost, "/only-get", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "cryptodata/internal/errors"
	"cryptodata/internal/logger"
	"cryptodata/internal/uuid"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	m.Run()
}

func newRouter(h gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(Recovery(), RequestLogging(), ErrorHandler())
	r.GET("/", h)
	return r
}

func get(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(requestIDHeader, header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var out struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out.Error.Code
}

func TestRequestLogging_SetsRequestID(t *testing.T) {
	var seen string
	r := newRouter(func(c *gin.Context) {
		seen = RequestID(c)
		c.Status(http.StatusNoContent)
	})

	rec := get(r, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, uuid.IsValid(seen))
	assert.Equal(t, seen, rec.Header().Get(requestIDHeader))
}

func TestRequestLogging_ReusesIncomingID(t *testing.T) {
	r := newRouter(func(c *gin.Context) { c.Status(http.StatusOK) })

	id := uuid.New()
	assert.Equal(t, id, get(r, id).Header().Get(requestIDHeader))

	// garbage is replaced
	assert.NotEqual(t, "not-an-id", get(r, "not-an-id").Header().Get(requestIDHeader))
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"app error", apperrors.ErrCurrencyNotFound, http.StatusNotFound, "CURRENCY_NOT_FOUND"},
		{"wrapped app error", fmt.Errorf("lookup: %w", apperrors.Wrap(apperrors.ErrInternalServer, errors.New("db down"))), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(func(c *gin.Context) { _ = c.Error(tt.err) })

			rec := get(r, "")
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}
}

func TestErrorHandler_KeepsWrittenResponse(t *testing.T) {
	r := newRouter(func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		_ = c.Error(errors.New("late"))
	})

	rec := get(r, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestRecovery(t *testing.T) {
	r := newRouter(func(c *gin.Context) { panic("kaboom") })

	rec := get(r, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(t, rec))
}

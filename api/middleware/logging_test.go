package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusRecorderTracksFirstStatusAndBytes(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	assert.Equal(t, http.StatusOK, rec.Status())

	rec.WriteHeader(http.StatusCreated)
	rec.WriteHeader(http.StatusTeapot)
	_, _ = rec.Write([]byte("hello"))

	assert.Equal(t, http.StatusCreated, rec.Status())
	assert.EqualValues(t, 5, rec.written)
}

func TestLoggingPassesThroughWithoutLogger(t *testing.T) {
	handler := Logging(nil)(okHandler())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, isQuiet("/health"))
	assert.False(t, isQuiet("/api/v1/orders"))
}

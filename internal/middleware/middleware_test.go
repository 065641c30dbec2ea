package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amankumarsingh77/hls-encoder/internal/config"
	"github.com/amankumarsingh77/hls-encoder/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestUploadLimit(t *testing.T) {
	cfg := &config.Config{Upload: config.UploadConfig{MaxSizeMB: 1}}
	mw := NewMiddlewareManager(cfg, []string{"*"}, logger.NewNop())

	e := echo.New()
	e.Use(mw.RequestLoggerMiddleware)
	e.POST("/upload", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, mw.UploadLimit())

	small := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("ok"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, small)
	assert.Equal(t, http.StatusOK, rec.Code)

	big := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(strings.Repeat("a", 3<<20)))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	mw := NewMiddlewareManager(&config.Config{}, []string{"*"}, logger.NewNop())
	e := echo.New()
	e.Use(mw.CORS())
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(echo.HeaderOrigin, "http://player.example")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

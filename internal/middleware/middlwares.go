package middleware

import (
	"fmt"
	"net/http"

	"github.com/amankumarsingh77/hls-encoder/internal/config"
	"github.com/amankumarsingh77/hls-encoder/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type MiddlewareManager struct {
	cfg     *config.Config
	origins []string
	logger  logger.Logger
}

// Middleware manager constructor
func NewMiddlewareManager(cfg *config.Config, origins []string, logger logger.Logger) *MiddlewareManager {
	return &MiddlewareManager{cfg: cfg, origins: origins, logger: logger}
}

// CORS allows players on other origins to fetch playlists and segments.
func (mw *MiddlewareManager) CORS() echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  mw.origins,
		AllowMethods:  []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{echo.HeaderContentType, "Range"},
		ExposeHeaders: []string{echo.HeaderContentLength, "Content-Range"},
		MaxAge:        300,
	})
}

// UploadLimit caps request bodies slightly above the configured upload size
// to leave room for multipart framing.
func (mw *MiddlewareManager) UploadLimit() echo.MiddlewareFunc {
	return middleware.BodyLimit(fmt.Sprintf("%dM", mw.cfg.Upload.MaxSizeMB+1))
}

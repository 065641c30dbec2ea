package http

import (
	"github.com/amankumarsingh77/hls-encoder/internal/middleware"
	"github.com/amankumarsingh77/hls-encoder/internal/videofiles"
	"github.com/labstack/echo/v4"
)

func MapVideoRoutes(videoGroup *echo.Group, h videofiles.Handler, mw *middleware.MiddlewareManager) {
	videoGroup.POST("/upload", h.UploadVideo(), mw.UploadLimit())
	videoGroup.GET("/:video_id/status", h.GetStatus())
	videoGroup.GET("/:video_id/download", h.DownloadVideo())
	videoGroup.DELETE("/:video_id", h.DeleteVideo())
}

func MapStreamRoutes(streamGroup *echo.Group, h videofiles.Handler) {
	streamGroup.GET("/:video_id/*", h.StreamFile())
}

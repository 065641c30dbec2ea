package http

import (
	"errors"
	"net/http"
	"path"

	"github.com/amankumarsingh77/hls-encoder/internal/models"
	"github.com/amankumarsingh77/hls-encoder/internal/transcode"
	"github.com/amankumarsingh77/hls-encoder/internal/videofiles"
	"github.com/amankumarsingh77/hls-encoder/pkg/logger"
	"github.com/amankumarsingh77/hls-encoder/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type videoHandler struct {
	videoUC videofiles.UseCase
	logger  logger.Logger
}

func NewVideoHandler(videoUC videofiles.UseCase, log logger.Logger) videofiles.Handler {
	return &videoHandler{
		videoUC: videoUC,
		logger:  log,
	}
}

func (h *videoHandler) UploadVideo() echo.HandlerFunc {
	return func(c echo.Context) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "No file provided"})
		}
		file, err := fileHeader.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Could not read upload"})
		}
		defer file.Close()

		input := &models.VideoUploadInput{
			FileName: fileHeader.Filename,
			Size:     fileHeader.Size,
		}
		res, err := h.videoUC.CreateVideo(c.Request().Context(), input, file)
		if err != nil {
			return h.errorResponse(c, err)
		}
		return c.JSON(http.StatusAccepted, res)
	}
}

func (h *videoHandler) GetStatus() echo.HandlerFunc {
	return func(c echo.Context) error {
		view, err := h.videoUC.GetStatus(c.Request().Context(), c.Param("video_id"))
		if err != nil {
			return h.errorResponse(c, err)
		}
		return c.JSON(http.StatusOK, view)
	}
}

func (h *videoHandler) DownloadVideo() echo.HandlerFunc {
	return func(c echo.Context) error {
		video, err := h.videoUC.GetVideo(c.Request().Context(), c.Param("video_id"))
		if err != nil {
			return h.errorResponse(c, err)
		}
		src, err := h.videoUC.ResolveRawFile(video)
		if err != nil {
			return h.errorResponse(c, err)
		}
		c.Response().Header().Set(echo.HeaderContentType, transcode.ContentType(src))
		return c.Attachment(src, utils.SanitizeFilename(video.OriginalName))
	}
}

func (h *videoHandler) StreamFile() echo.HandlerFunc {
	return func(c echo.Context) error {
		file := c.Param("*")
		abs, err := h.videoUC.ResolveStreamFile(c.Request().Context(), c.Param("video_id"), file)
		if err != nil {
			return h.errorResponse(c, err)
		}
		header := c.Response().Header()
		header.Set(echo.HeaderContentType, transcode.ContentType(abs))
		switch path.Ext(abs) {
		case ".ts":
			header.Set("Cache-Control", "public, max-age=31536000, immutable")
		case ".m3u8":
			header.Set("Cache-Control", "no-cache")
		default:
			header.Set("Cache-Control", "public, max-age=3600")
		}
		return c.File(abs)
	}
}

func (h *videoHandler) DeleteVideo() echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := h.videoUC.DeleteVideo(c.Request().Context(), c.Param("video_id")); err != nil {
			return h.errorResponse(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func (h *videoHandler) errorResponse(c echo.Context, err error) error {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, videofiles.ErrVideoNotFound), errors.Is(err, videofiles.ErrArtifactUnavailable):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, videofiles.ErrFileTooLarge):
		return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{"error": err.Error()})
	case errors.Is(err, videofiles.ErrUnsupportedFormat),
		errors.Is(err, videofiles.ErrInvalidStreamPath),
		errors.As(err, &validationErrs):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	h.logger.Errorf("videoHandler - RequestID %s: %v", utils.GetRequestID(c), err)
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
}

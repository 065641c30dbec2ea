package videofiles

import "github.com/labstack/echo/v4"

type Handler interface {
	UploadVideo() echo.HandlerFunc
	GetStatus() echo.HandlerFunc
	DownloadVideo() echo.HandlerFunc
	StreamFile() echo.HandlerFunc
	DeleteVideo() echo.HandlerFunc
}

package middleware

import (
	"strconv"
	"time"

	"github.com/amankumarsingh77/hls-encoder/internal/metrics"
	"github.com/amankumarsingh77/hls-encoder/pkg/utils"
	"github.com/labstack/echo/v4"
)

// RequestLoggerMiddleware logs every request and records HTTP metrics.
func (mw *MiddlewareManager) RequestLoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		start := time.Now()
		err := next(ctx)
		if err != nil {
			ctx.Error(err)
		}

		req := ctx.Request()
		res := ctx.Response()
		status := res.Status
		route := ctx.Path()
		if route == "" {
			route = "unmatched"
		}
		latency := time.Since(start)

		metrics.HTTPRequestsTotal.WithLabelValues(req.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(req.Method, route).Observe(latency.Seconds())

		mw.logger.Infof("RequestID: %s, Method: %s, URI: %s, Status: %v, Size: %v, Time: %s",
			utils.GetRequestID(ctx), req.Method, req.URL.String(), status, res.Size, latency,
		)
		return nil
	}
}

package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amankumarsingh77/hls-encoder/internal/config"
	"github.com/amankumarsingh77/hls-encoder/internal/ffmpeg"
	"github.com/amankumarsingh77/hls-encoder/internal/transcode"
	"github.com/amankumarsingh77/hls-encoder/pkg/logger"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
)

const (
	maxHeaderBytes = 1 << 20
	ctxTimeout     = 5
	// drainTimeout bounds how long shutdown waits for local runs to
	// record their outcome after being cancelled.
	drainTimeout = 30 * time.Second
)

type Server struct {
	echo        *echo.Echo
	cfg         *config.Config
	db          *sqlx.DB
	redisClient *redis.Client
	s3Client    *s3.Client
	toolchain   *ffmpeg.Toolchain
	codec       ffmpeg.Codec
	logger      logger.Logger

	local *transcode.LocalDispatcher
}

// NewServer builds the API server. redisClient and s3Client may be nil
// when Redis or S3 are not configured.
func NewServer(
	cfg *config.Config,
	db *sqlx.DB,
	redisClient *redis.Client,
	s3Client *s3.Client,
	toolchain *ffmpeg.Toolchain,
	codec ffmpeg.Codec,
	logger logger.Logger,
) *Server {
	return &Server{
		echo:        echo.New(),
		cfg:         cfg,
		db:          db,
		redisClient: redisClient,
		s3Client:    s3Client,
		toolchain:   toolchain,
		codec:       codec,
		logger:      logger,
	}
}

func (s *Server) Run() error {
	if err := s.MapHandlers(s.echo); err != nil {
		return err
	}
	s.echo.HideBanner = true
	server := &http.Server{
		Addr:           s.cfg.Server.Port,
		ReadTimeout:    s.cfg.Server.ReadTimeout,
		IdleTimeout:    s.cfg.Server.IdleTimeout,
		WriteTimeout:   s.cfg.Server.WriteTimeout,
		MaxHeaderBytes: maxHeaderBytes,
	}
	go func() {
		s.logger.Infof("Server is listening on PORT: %s", s.cfg.Server.Port)
		if err := s.echo.StartServer(server); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal("error starting Server: ", err)
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, os.Interrupt)
	<-quit

	s.logger.Infof("shutting down server")
	return s.Shutdown()
}

// Shutdown stops accepting requests, then cancels in-process runs and
// waits for them to settle.
func (s *Server) Shutdown() error {
	ctx, shutdown := context.WithTimeout(context.Background(), time.Second*ctxTimeout)
	defer shutdown()
	if err := s.echo.Shutdown(ctx); err != nil {
		s.logger.Errorf("http shutdown: %v", err)
	}
	if s.local == nil {
		return nil
	}
	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	return s.local.Shutdown(drainCtx)
}

package server

import (
	"context"
	"net/http"
	"time"

	"github.com/amankumarsingh77/hls-encoder/internal/middleware"
	"github.com/amankumarsingh77/hls-encoder/internal/transcode"
	"github.com/amankumarsingh77/hls-encoder/internal/videofiles"
	videoHttp "github.com/amankumarsingh77/hls-encoder/internal/videofiles/delivery/http"
	videoRepository "github.com/amankumarsingh77/hls-encoder/internal/videofiles/repository"
	videoUsecase "github.com/amankumarsingh77/hls-encoder/internal/videofiles/usecase"
	"github.com/amankumarsingh77/hls-encoder/internal/worker"
	"github.com/amankumarsingh77/hls-encoder/pkg/utils"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const startupTimeout = 30 * time.Second

func (s *Server) MapHandlers(e *echo.Echo) error {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	vRepo := videoRepository.NewVideoRepo(s.db)
	if err := vRepo.Migrate(ctx); err != nil {
		return errors.Wrap(err, "Server.MapHandlers.Migrate")
	}
	var vRedisRepo videofiles.RedisRepository
	if s.redisClient != nil {
		vRedisRepo = videoRepository.NewVideoRedisRepo(s.redisClient)
	}
	var vAWSRepo videofiles.AWSRepository
	if s.s3Client != nil {
		vAWSRepo = videoRepository.NewAwsRepository(s.s3Client)
	}

	dispatcher, err := s.newDispatcher(vRepo, vRedisRepo, vAWSRepo)
	if err != nil {
		return err
	}
	videoUC := videoUsecase.NewVideoUseCase(s.cfg, vRepo, vRedisRepo, vAWSRepo, dispatcher, s.logger)

	// Queued Redis jobs survive a restart on their own; only local runs
	// need to be picked up again.
	if s.local != nil {
		n, err := videoUC.ResumePending(ctx)
		if err != nil {
			s.logger.Errorf("resume pending videos: %v", err)
		} else if n > 0 {
			s.logger.Infof("resumed %d pending videos", n)
		}
	}

	videoHandlers := videoHttp.NewVideoHandler(videoUC, s.logger)
	mw := middleware.NewMiddlewareManager(s.cfg, s.cfg.Server.CorsOrigins, s.logger)

	e.Use(echoMiddleware.RequestID())
	e.Use(echoMiddleware.Recover())
	e.Use(mw.CORS())
	e.Use(mw.RequestLoggerMiddleware)

	v1 := e.Group("/api/v1")
	health := v1.Group("/health")
	videoGroup := v1.Group("/video")
	streamGroup := v1.Group("/stream")

	videoHttp.MapVideoRoutes(videoGroup, videoHandlers, mw)
	videoHttp.MapStreamRoutes(streamGroup, videoHandlers)
	health.GET("", s.healthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	return nil
}

// newDispatcher picks where runs execute. Local mode keeps the dispatcher
// so Shutdown can drain it.
func (s *Server) newDispatcher(store transcode.RecordStore, redisRepo videofiles.RedisRepository, awsRepo videofiles.AWSRepository) (transcode.Dispatcher, error) {
	if s.cfg.Worker.Mode == "redis" {
		if redisRepo == nil {
			return nil, errors.New("worker mode redis requires a redis client")
		}
		return worker.NewRedisDispatcher(s.cfg, redisRepo, s.logger), nil
	}

	var opts []transcode.Option
	if redisRepo != nil {
		opts = append(opts, transcode.WithStageReporter(worker.NewStageReporter(redisRepo, s.logger)))
	}
	if awsRepo != nil && s.cfg.S3.Enabled {
		layout := transcode.NewLayout(s.cfg.Transcode.StorageRoot)
		opts = append(opts, transcode.WithPublisher(transcode.NewS3Publisher(awsRepo, s.cfg.S3.OutputBucket, layout)))
	}
	pipeline := transcode.NewPipeline(s.cfg, s.toolchain, s.codec, store, s.logger, opts...)
	s.local = transcode.NewLocalDispatcher(pipeline, s.cfg.Worker.WorkerCount, s.logger)
	return s.local, nil
}

func (s *Server) healthCheck(c echo.Context) error {
	ctx := c.Request().Context()
	status := map[string]string{"status": "OK", "encoder": string(s.codec.Name)}
	code := http.StatusOK
	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Errorf("Health check RequestID %s: db: %v", utils.GetRequestID(c), err)
		status["status"], status["db"] = "DEGRADED", "unreachable"
		code = http.StatusServiceUnavailable
	}
	if s.redisClient != nil {
		if err := s.redisClient.Ping(ctx).Err(); err != nil {
			s.logger.Errorf("Health check RequestID %s: redis: %v", utils.GetRequestID(c), err)
			status["status"], status["redis"] = "DEGRADED", "unreachable"
			code = http.StatusServiceUnavailable
		}
	}
	return c.JSON(code, status)
}

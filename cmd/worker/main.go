package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/amankumarsingh77/hls-encoder/internal/config"
	"github.com/amankumarsingh77/hls-encoder/internal/ffmpeg"
	"github.com/amankumarsingh77/hls-encoder/internal/transcode"
	"github.com/amankumarsingh77/hls-encoder/internal/videofiles/repository"
	"github.com/amankumarsingh77/hls-encoder/internal/worker"
	"github.com/amankumarsingh77/hls-encoder/pkg/db/aws"
	"github.com/amankumarsingh77/hls-encoder/pkg/db/database"
	clientRedis "github.com/amankumarsingh77/hls-encoder/pkg/db/redis"
	"github.com/amankumarsingh77/hls-encoder/pkg/logger"
)

func main() {
	configFile := flag.String("config", "config.yml", "path to the config file")
	flag.Parse()

	cfgFile, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("loadConfig: %v", err)
	}
	cfg, err := config.ParseConfig(cfgFile)
	if err != nil {
		log.Fatalf("parseConfig: %v", err)
	}
	appLogger := logger.NewApiLogger(cfg)
	appLogger.InitLogger()
	appLogger.Infof("AppVersion: %s, LogLevel: %s, Workers: %d", cfg.Server.AppVersion, cfg.Logger.Level, cfg.Worker.WorkerCount)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer cancel()

	tc, err := ffmpeg.ResolveToolchain(cfg.Transcode.FFmpegPath, cfg.Transcode.FFprobePath)
	if err != nil {
		appLogger.Fatalf("toolchain: %v", err)
	}
	codec := ffmpeg.DetectVideoCodec(ctx, tc, ffmpeg.HWAccel(cfg.Transcode.HWAccel), cfg.Transcode.VaapiDevice)
	appLogger.Infof("video encoder: %s", codec.Name)

	db, err := database.NewDB(cfg)
	if err != nil {
		appLogger.Fatalf("could not connect to db: %s", err)
	}
	appLogger.Infof("db connected, status: %#v", db.Stats())
	defer db.Close()

	redisClient, err := clientRedis.NewRedisClient(ctx, cfg)
	if err != nil {
		appLogger.Fatalf("could not connect to redis: %s", err)
	}
	appLogger.Infof("redis connected")
	defer redisClient.Close()

	videoRepo := repository.NewVideoRepo(db)
	if err := videoRepo.Migrate(ctx); err != nil {
		appLogger.Fatalf("migrate: %v", err)
	}
	videoRedisRepo := repository.NewVideoRedisRepo(redisClient)

	opts := []transcode.Option{transcode.WithStageReporter(worker.NewStageReporter(videoRedisRepo, appLogger))}
	if cfg.S3.Enabled {
		s3Client, err := aws.NewAWSClient(ctx, cfg.S3.Endpoint, cfg.S3.Region, cfg.S3.AccessKey, cfg.S3.SecretKey)
		if err != nil {
			appLogger.Fatalf("could not connect to s3: %s", err)
		}
		layout := transcode.NewLayout(cfg.Transcode.StorageRoot)
		opts = append(opts, transcode.WithPublisher(transcode.NewS3Publisher(repository.NewAwsRepository(s3Client), cfg.S3.OutputBucket, layout)))
	}
	pipeline := transcode.NewPipeline(cfg, tc, codec, videoRepo, appLogger, opts...)

	w := worker.NewWorker(cfg, pipeline, videoRedisRepo, appLogger)
	if err := w.Start(ctx); err != nil {
		appLogger.Fatalf("start worker: %v", err)
	}
	<-ctx.Done()
	appLogger.Info("Shutting down...")
	w.Wait()
}

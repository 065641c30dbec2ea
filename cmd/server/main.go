package main

import (
	"context"
	"flag"
	"log"

	"github.com/amankumarsingh77/hls-encoder/internal/config"
	"github.com/amankumarsingh77/hls-encoder/internal/ffmpeg"
	"github.com/amankumarsingh77/hls-encoder/internal/server"
	"github.com/amankumarsingh77/hls-encoder/pkg/db/aws"
	"github.com/amankumarsingh77/hls-encoder/pkg/db/database"
	"github.com/amankumarsingh77/hls-encoder/pkg/db/redis"
	"github.com/amankumarsingh77/hls-encoder/pkg/logger"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	goredis "github.com/go-redis/redis/v8"
)

func main() {
	log.Println("Starting server")
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
	appLogger.Infof("AppVersion: %s, LogLevel: %s, Mode: %s, WorkerMode: %s", cfg.Server.AppVersion, cfg.Logger.Level, cfg.Server.Mode, cfg.Worker.Mode)

	ctx := context.Background()
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

	var redisClient *goredis.Client
	if cfg.Worker.Mode == "redis" || cfg.Redis.RedisAddr != "" {
		redisClient, err = redis.NewRedisClient(ctx, cfg)
		if err != nil {
			if cfg.Worker.Mode == "redis" {
				appLogger.Fatalf("could not connect to redis: %s", err)
			}
			appLogger.Warnf("redis unavailable, stage tracking disabled: %s", err)
		} else {
			appLogger.Infof("redis connected")
			defer redisClient.Close()
		}
	}

	var s3Client *s3.Client
	if cfg.S3.Enabled {
		s3Client, err = aws.NewAWSClient(ctx, cfg.S3.Endpoint, cfg.S3.Region, cfg.S3.AccessKey, cfg.S3.SecretKey)
		if err != nil {
			appLogger.Fatalf("could not connect to s3: %s", err)
		}
	}

	s := server.NewServer(cfg, db, redisClient, s3Client, tc, codec, appLogger)
	if err = s.Run(); err != nil {
		appLogger.Errorf("server stopped: %s", err)
	}
}

package config

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/amankumarsingh77/hls-encoder/pkg/utils"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DBConfig
	Redis     RedisConfig
	S3        S3Config
	Logger    Logger
	Worker    WorkerConfig
	Transcode TranscodeConfig
	Upload    UploadConfig
}

type ServerConfig struct {
	AppVersion   string
	Port         string `validate:"required"`
	Mode         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	CorsOrigins  []string
}

type WorkerConfig struct {
	// Mode selects where transcode runs execute: "local" runs them in the
	// API process, "redis" hands them to cmd/worker through a Redis list.
	Mode          string  `validate:"oneof=local redis"`
	WorkerCount   int     `validate:"min=1"`
	MaxCPUUsage   float64 `validate:"gt=0,lte=100"`
	CheckInterval time.Duration
	CancelChannel string
}

type DBConfig struct {
	Driver   string `validate:"oneof=pgx sqlite"`
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	// Path is the database file used by the sqlite driver.
	Path string
}

type RedisConfig struct {
	RedisAddr     string
	RedisPassword string
	DB            int
	MinIdleConns  int
	PoolSize      int
	PoolTimeout   int
	UseTLS        bool
	JobQueueKey   string
}

type S3Config struct {
	Enabled      bool
	Endpoint     string
	Region       string
	AccessKey    string
	SecretKey    string
	OutputBucket string `validate:"required_if=Enabled true"`
}

type Logger struct {
	Development       bool
	DisableCaller     bool
	DisableStacktrace bool
	Encoding          string
	Level             string
}

type TranscodeConfig struct {
	FFmpegPath      string
	FFprobePath     string
	StorageRoot     string `validate:"required"`
	HWAccel         string `validate:"oneof=auto none vaapi videotoolbox nvenc"`
	VaapiDevice     string
	EncodeTimeout   time.Duration
	ProbeTimeout    time.Duration
	Parallelism     int `validate:"min=1"`
	Threads         int `validate:"min=0"`
	CleanupFailed   bool
	ThumbnailOffset float64 `validate:"min=0"`
	ThumbnailWidth  int     `validate:"min=16"`
}

type UploadConfig struct {
	MaxSizeMB         int64    `validate:"min=1"`
	AllowedExtensions []string `validate:"min=1"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":5000")
	v.SetDefault("server.mode", "Development")
	v.SetDefault("server.readTimeout", "10s")
	v.SetDefault("server.writeTimeout", "0s")
	v.SetDefault("server.idleTimeout", "120s")
	v.SetDefault("server.corsOrigins", []string{"*"})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "uploads/videos.db")
	v.SetDefault("database.sslMode", "disable")

	v.SetDefault("redis.redisAddr", ":6379")
	v.SetDefault("redis.poolSize", 10)
	v.SetDefault("redis.poolTimeout", 5)
	v.SetDefault("redis.jobQueueKey", "video_jobs")

	v.SetDefault("logger.encoding", "console")
	v.SetDefault("logger.level", "info")

	v.SetDefault("worker.mode", "local")
	v.SetDefault("worker.workerCount", 2)
	v.SetDefault("worker.maxCPUUsage", 85.0)
	v.SetDefault("worker.checkInterval", "10s")
	v.SetDefault("worker.cancelChannel", "video_cancel")

	v.SetDefault("transcode.ffmpegPath", "ffmpeg")
	v.SetDefault("transcode.ffprobePath", "ffprobe")
	v.SetDefault("transcode.storageRoot", "uploads")
	v.SetDefault("transcode.hwAccel", "auto")
	v.SetDefault("transcode.encodeTimeout", "30m")
	v.SetDefault("transcode.probeTimeout", "30s")
	v.SetDefault("transcode.parallelism", 1)
	v.SetDefault("transcode.threads", 4)
	v.SetDefault("transcode.cleanupFailed", true)
	v.SetDefault("transcode.thumbnailOffset", 1.0)
	v.SetDefault("transcode.thumbnailWidth", 640)

	v.SetDefault("upload.maxSizeMB", 500)
	v.SetDefault("upload.allowedExtensions", []string{".mp4", ".webm", ".mov"})
}

func LoadConfig(filename string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(filename)
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFound) {
			return nil, errors.New("config file not found")
		}
		return nil, err
	}
	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	return utils.ValidateStruct(context.Background(), c)
}

// MaxUploadBytes converts the configured upload ceiling to bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.Upload.MaxSizeMB << 20
}

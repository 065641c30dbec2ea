package repository

import (
	"context"
	"time"

	"github.com/amankumarsingh77/hls-encoder/internal/models"
	"github.com/amankumarsingh77/hls-encoder/internal/videofiles"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

const (
	stagePrefix = "video:stage:"
	stageTTL    = 24 * time.Hour
)

type videoRedisRepo struct {
	redisClient *redis.Client
}

func NewVideoRedisRepo(redisClient *redis.Client) videofiles.RedisRepository {
	return &videoRedisRepo{
		redisClient: redisClient,
	}
}

func (v *videoRedisRepo) EnqueueJob(ctx context.Context, key string, job *models.TranscodeJob) error {
	if err := v.redisClient.LPush(ctx, key, job).Err(); err != nil {
		return errors.Wrap(err, "videoRedisRepo.EnqueueJob.LPush")
	}
	return nil
}

func (v *videoRedisRepo) DequeueJob(ctx context.Context, key string, wait time.Duration) (*models.TranscodeJob, error) {
	res, err := v.redisClient.BRPop(ctx, wait, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "videoRedisRepo.DequeueJob.BRPop")
	}
	job := &models.TranscodeJob{}
	if err = job.UnmarshalBinary([]byte(res[1])); err != nil {
		return nil, errors.Wrap(err, "videoRedisRepo.DequeueJob.Unmarshal")
	}
	return job, nil
}

func (v *videoRedisRepo) QueueLength(ctx context.Context, key string) (int64, error) {
	n, err := v.redisClient.LLen(ctx, key).Result()
	if err != nil {
		return 0, errors.Wrap(err, "videoRedisRepo.QueueLength.LLen")
	}
	return n, nil
}

func (v *videoRedisRepo) SetStage(ctx context.Context, videoID string, stage models.TranscodeStage) error {
	key := stagePrefix + videoID
	_, err := v.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "stage", string(stage), "updated_at", time.Now().UTC().Format(time.RFC3339))
		pipe.Expire(ctx, key, stageTTL)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "videoRedisRepo.SetStage")
	}
	return nil
}

func (v *videoRedisRepo) GetStage(ctx context.Context, videoID string) (models.TranscodeStage, error) {
	stage, err := v.redisClient.HGet(ctx, stagePrefix+videoID, "stage").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", errors.Wrap(err, "videoRedisRepo.GetStage.HGet")
	}
	return models.TranscodeStage(stage), nil
}

func (v *videoRedisRepo) PublishCancel(ctx context.Context, channel, videoID string) error {
	if err := v.redisClient.Publish(ctx, channel, videoID).Err(); err != nil {
		return errors.Wrap(err, "videoRedisRepo.PublishCancel.Publish")
	}
	return nil
}

// SubscribeCancel delivers cancelled video ids until ctx ends.
func (v *videoRedisRepo) SubscribeCancel(ctx context.Context, channel string) (<-chan string, error) {
	pubsub := v.redisClient.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, errors.Wrap(err, "videoRedisRepo.SubscribeCancel.Receive")
	}
	out := make(chan string)
	go func() {
		defer close(out)
		defer pubsub.Close()
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/amankumarsingh77/hls-encoder/internal/models"
	"github.com/amankumarsingh77/hls-encoder/internal/videofiles"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (videofiles.RedisRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewVideoRedisRepo(client), mr
}

func TestRedisQueueIsFIFO(t *testing.T) {
	repo, _ := setupRedis(t)
	ctx := context.Background()

	for _, id := range []string{"first", "second"} {
		require.NoError(t, repo.EnqueueJob(ctx, "jobs", &models.TranscodeJob{VideoID: id, SourcePath: "raw/" + id + ".mp4"}))
	}
	n, err := repo.QueueLength(ctx, "jobs")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	job, err := repo.DequeueJob(ctx, "jobs", time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "first", job.VideoID)
	assert.Equal(t, "raw/first.mp4", job.SourcePath)

	job, err = repo.DequeueJob(ctx, "jobs", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "second", job.VideoID)
}

func TestRedisDequeueTimeout(t *testing.T) {
	repo, _ := setupRedis(t)
	job, err := repo.DequeueJob(context.Background(), "empty", 100*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestRedisStages(t *testing.T) {
	repo, mr := setupRedis(t)
	ctx := context.Background()

	stage, err := repo.GetStage(ctx, "v1")
	require.NoError(t, err)
	assert.Empty(t, stage)

	require.NoError(t, repo.SetStage(ctx, "v1", models.StageEncoding))
	stage, err = repo.GetStage(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, models.StageEncoding, stage)
	assert.Equal(t, stageTTL, mr.TTL(stagePrefix+"v1"))
}

func TestRedisCancelPubSub(t *testing.T) {
	repo, _ := setupRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := repo.SubscribeCancel(ctx, "cancel")
	require.NoError(t, err)
	require.NoError(t, repo.PublishCancel(ctx, "cancel", "v9"))

	select {
	case id := <-ch:
		assert.Equal(t, "v9", id)
	case <-time.After(2 * time.Second):
		t.Fatal("cancel message not delivered")
	}

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not closed after cancel")
	}
}

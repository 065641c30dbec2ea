package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/amankumarsingh77/hls-encoder/internal/models"
	"github.com/amankumarsingh77/hls-encoder/internal/videofiles"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newTestRepo(t *testing.T) videofiles.Repository {
	t.Helper()
	db, err := sqlx.Connect("sqlite", filepath.Join(t.TempDir(), "videos.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewVideoRepo(db)
	require.NoError(t, repo.Migrate(context.Background()))
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func createTestVideo(t *testing.T, repo videofiles.Repository) *models.Video {
	t.Helper()
	id := uuid.NewString()
	v, err := repo.CreateVideo(context.Background(), &models.Video{
		ID:           id,
		OriginalName: "clip.mp4",
		RawPath:      "raw/" + id + ".mp4",
	})
	require.NoError(t, err)
	return v
}

func TestVideoRepoCreateAndGet(t *testing.T) {
	repo := newTestRepo(t)
	v := createTestVideo(t, repo)

	assert.Equal(t, models.VideoStatusProcessing, v.Status)
	assert.Equal(t, "clip.mp4", v.OriginalName)
	assert.Nil(t, v.MasterPlaylistPath)
	assert.Nil(t, v.RenditionPaths)
	assert.Nil(t, v.ThumbnailPath)
	assert.Nil(t, v.Duration)
	assert.Nil(t, v.SourceWidth)
	assert.False(t, v.CreatedAt.IsZero())

	_, err := repo.GetVideoByID(context.Background(), "missing")
	assert.ErrorIs(t, err, videofiles.ErrVideoNotFound)
}

func TestVideoRepoMarkReady(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	v := createTestVideo(t, repo)

	p720 := "hls/" + v.ID + "/720p/index.m3u8"
	thumb := "thumbs/" + v.ID + ".jpg"
	require.NoError(t, repo.MarkReady(ctx, v.ID, &models.VideoResult{
		MasterPlaylistPath: "hls/" + v.ID + "/index.m3u8",
		RenditionPaths:     models.RenditionPaths{"720p": &p720, "1080p": nil},
		ThumbnailPath:      &thumb,
		Duration:           12.5,
		Width:              1280,
		Height:             720,
	}))

	got, err := repo.GetVideoByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VideoStatusReady, got.Status)
	require.NotNil(t, got.MasterPlaylistPath)
	assert.Equal(t, "hls/"+v.ID+"/index.m3u8", *got.MasterPlaylistPath)
	require.Contains(t, got.RenditionPaths, "1080p")
	assert.Nil(t, got.RenditionPaths["1080p"])
	assert.Equal(t, p720, *got.RenditionPaths["720p"])
	assert.Equal(t, thumb, *got.ThumbnailPath)
	assert.InDelta(t, 12.5, *got.Duration, 0.0001)
	assert.Equal(t, 1280, *got.SourceWidth)
	assert.Equal(t, 720, *got.SourceHeight)

	assert.ErrorIs(t, repo.MarkFailed(ctx, v.ID), videofiles.ErrNotProcessing)
	got, err = repo.GetVideoByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VideoStatusReady, got.Status)
}

func TestVideoRepoMarkFailedLeavesDerivedFieldsNull(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	v := createTestVideo(t, repo)

	require.NoError(t, repo.MarkFailed(ctx, v.ID))
	got, err := repo.GetVideoByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VideoStatusError, got.Status)
	assert.Nil(t, got.MasterPlaylistPath)
	assert.Nil(t, got.RenditionPaths)
	assert.Nil(t, got.ThumbnailPath)

	err = repo.MarkReady(ctx, v.ID, &models.VideoResult{MasterPlaylistPath: "x"})
	assert.ErrorIs(t, err, videofiles.ErrNotProcessing)
	assert.ErrorIs(t, repo.MarkFailed(ctx, "missing"), videofiles.ErrVideoNotFound)
}

func TestVideoRepoListByStatusAndDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	a := createTestVideo(t, repo)
	b := createTestVideo(t, repo)
	require.NoError(t, repo.MarkFailed(ctx, b.ID))

	pending, err := repo.ListByStatus(ctx, models.VideoStatusProcessing)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, a.ID, pending[0].ID)

	require.NoError(t, repo.DeleteVideo(ctx, a.ID))
	assert.ErrorIs(t, repo.DeleteVideo(ctx, a.ID), videofiles.ErrVideoNotFound)
}

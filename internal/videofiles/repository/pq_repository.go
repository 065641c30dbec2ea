package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/amankumarsingh77/hls-encoder/internal/models"
	"github.com/amankumarsingh77/hls-encoder/internal/videofiles"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type videoRepo struct {
	db *sqlx.DB
}

func NewVideoRepo(db *sqlx.DB) videofiles.Repository {
	return &videoRepo{
		db: db,
	}
}

func (v *videoRepo) Migrate(ctx context.Context) error {
	for _, q := range []string{createVideosTableQuery, createStatusIndexQuery} {
		if _, err := v.db.ExecContext(ctx, q); err != nil {
			return errors.Wrap(err, "videoRepo.Migrate.ExecContext")
		}
	}
	return nil
}

func (v *videoRepo) CreateVideo(ctx context.Context, video *models.Video) (*models.Video, error) {
	now := time.Now().UTC()
	if _, err := v.db.ExecContext(
		ctx,
		v.db.Rebind(createVideoQuery),
		video.ID,
		video.OriginalName,
		video.RawPath,
		string(models.VideoStatusProcessing),
		now,
		now,
	); err != nil {
		return nil, errors.Wrap(err, "videoRepo.CreateVideo.ExecContext")
	}
	return v.GetVideoByID(ctx, video.ID)
}

func (v *videoRepo) GetVideoByID(ctx context.Context, videoID string) (*models.Video, error) {
	video := &models.Video{}
	if err := v.db.QueryRowxContext(ctx, v.db.Rebind(getVideoByIDQuery), videoID).StructScan(video); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, videofiles.ErrVideoNotFound
		}
		return nil, errors.Wrap(err, "videoRepo.GetVideoByID.StructScan")
	}
	return video, nil
}

func (v *videoRepo) ListByStatus(ctx context.Context, status models.VideoStatus) ([]*models.Video, error) {
	rows, err := v.db.QueryxContext(ctx, v.db.Rebind(listVideosByStatusQuery), string(status))
	if err != nil {
		return nil, errors.Wrap(err, "videoRepo.ListByStatus.QueryxContext")
	}
	defer rows.Close()

	videos := make([]*models.Video, 0)
	for rows.Next() {
		video := &models.Video{}
		if err = rows.StructScan(video); err != nil {
			return nil, errors.Wrap(err, "videoRepo.ListByStatus.StructScan")
		}
		videos = append(videos, video)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "videoRepo.ListByStatus.rows.Err")
	}
	return videos, nil
}

func (v *videoRepo) MarkReady(ctx context.Context, videoID string, result *models.VideoResult) error {
	res, err := v.db.ExecContext(
		ctx,
		v.db.Rebind(markReadyQuery),
		string(models.VideoStatusReady),
		result.MasterPlaylistPath,
		result.RenditionPaths,
		result.ThumbnailPath,
		result.Duration,
		result.Width,
		result.Height,
		time.Now().UTC(),
		videoID,
		string(models.VideoStatusProcessing),
	)
	if err != nil {
		return errors.Wrap(err, "videoRepo.MarkReady.ExecContext")
	}
	return v.checkTransition(ctx, res, videoID)
}

func (v *videoRepo) MarkFailed(ctx context.Context, videoID string) error {
	res, err := v.db.ExecContext(
		ctx,
		v.db.Rebind(markFailedQuery),
		string(models.VideoStatusError),
		time.Now().UTC(),
		videoID,
		string(models.VideoStatusProcessing),
	)
	if err != nil {
		return errors.Wrap(err, "videoRepo.MarkFailed.ExecContext")
	}
	return v.checkTransition(ctx, res, videoID)
}

// checkTransition turns a zero-row update into the reason it matched nothing.
func (v *videoRepo) checkTransition(ctx context.Context, res sql.Result, videoID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "videoRepo.RowsAffected")
	}
	if n > 0 {
		return nil
	}
	if _, err := v.GetVideoByID(ctx, videoID); err != nil {
		return err
	}
	return videofiles.ErrNotProcessing
}

func (v *videoRepo) DeleteVideo(ctx context.Context, videoID string) error {
	res, err := v.db.ExecContext(ctx, v.db.Rebind(deleteVideoQuery), videoID)
	if err != nil {
		return errors.Wrap(err, "videoRepo.DeleteVideo.ExecContext")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "videoRepo.DeleteVideo.RowsAffected")
	}
	if n == 0 {
		return videofiles.ErrVideoNotFound
	}
	return nil
}

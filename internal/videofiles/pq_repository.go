package videofiles

import (
	"context"

	"github.com/amankumarsingh77/hls-encoder/internal/models"
)

// Repository persists video records. MarkReady and MarkFailed only touch
// records that are still processing.
type Repository interface {
	Migrate(ctx context.Context) error
	CreateVideo(ctx context.Context, video *models.Video) (*models.Video, error)
	GetVideoByID(ctx context.Context, videoID string) (*models.Video, error)
	ListByStatus(ctx context.Context, status models.VideoStatus) ([]*models.Video, error)
	MarkReady(ctx context.Context, videoID string, result *models.VideoResult) error
	MarkFailed(ctx context.Context, videoID string) error
	DeleteVideo(ctx context.Context, videoID string) error
}

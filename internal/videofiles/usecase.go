package videofiles

import (
	"context"
	"io"

	"github.com/amankumarsingh77/hls-encoder/internal/models"
)

type UseCase interface {
	CreateVideo(ctx context.Context, input *models.VideoUploadInput, body io.Reader) (*models.UploadResponse, error)
	GetStatus(ctx context.Context, videoID string) (*models.VideoStatusView, error)
	GetVideo(ctx context.Context, videoID string) (*models.Video, error)
	// ResolveStreamFile maps a request under /stream/:video_id/ to an
	// absolute file path.
	ResolveStreamFile(ctx context.Context, videoID, file string) (string, error)
	ResolveRawFile(video *models.Video) (string, error)
	DeleteVideo(ctx context.Context, videoID string) error
	ResumePending(ctx context.Context) (int, error)
}

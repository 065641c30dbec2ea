package usecase

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/amankumarsingh77/hls-encoder/internal/config"
	"github.com/amankumarsingh77/hls-encoder/internal/ffmpeg"
	"github.com/amankumarsingh77/hls-encoder/internal/metrics"
	"github.com/amankumarsingh77/hls-encoder/internal/models"
	"github.com/amankumarsingh77/hls-encoder/internal/transcode"
	"github.com/amankumarsingh77/hls-encoder/internal/videofiles"
	"github.com/amankumarsingh77/hls-encoder/pkg/logger"
	"github.com/amankumarsingh77/hls-encoder/pkg/utils"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	apiPrefix     = "/api/v1"
	thumbnailFile = "thumb.jpg"
)

var segmentName = regexp.MustCompile(`^seg_\d{3,}\.ts$`)

type videoFileUC struct {
	cfg        *config.Config
	videoRepo  videofiles.Repository
	redisRepo  videofiles.RedisRepository
	awsRepo    videofiles.AWSRepository
	dispatcher transcode.Dispatcher
	layout     transcode.Layout
	logger     logger.Logger
}

// NewVideoUseCase wires the video use case. redisRepo and awsRepo may be
// nil when Redis or S3 are not configured.
func NewVideoUseCase(
	cfg *config.Config,
	videoRepo videofiles.Repository,
	redisRepo videofiles.RedisRepository,
	awsRepo videofiles.AWSRepository,
	dispatcher transcode.Dispatcher,
	log logger.Logger,
) videofiles.UseCase {
	return &videoFileUC{
		cfg:        cfg,
		videoRepo:  videoRepo,
		redisRepo:  redisRepo,
		awsRepo:    awsRepo,
		dispatcher: dispatcher,
		layout:     transcode.NewLayout(cfg.Transcode.StorageRoot),
		logger:     log,
	}
}

func (v *videoFileUC) CreateVideo(ctx context.Context, input *models.VideoUploadInput, body io.Reader) (*models.UploadResponse, error) {
	if input == nil {
		return nil, fmt.Errorf("invalid input: input is nil")
	}
	if err := utils.ValidateStruct(ctx, input); err != nil {
		return nil, errors.Wrap(err, "videoFileUC.CreateVideo.ValidateStruct")
	}
	ext := utils.NormalizeExtension(input.FileName)
	if !slices.Contains(v.cfg.Upload.AllowedExtensions, ext) {
		return nil, errors.Wrapf(videofiles.ErrUnsupportedFormat, "%q", ext)
	}
	maxBytes := v.cfg.MaxUploadBytes()
	if input.Size > maxBytes {
		return nil, videofiles.ErrFileTooLarge
	}

	videoID := uuid.NewString()
	rawRel := transcode.RawRel(videoID, ext)
	written, err := v.saveRaw(rawRel, body, maxBytes)
	if err != nil {
		return nil, err
	}
	metrics.UploadBytesTotal.Add(float64(written))

	video, err := v.videoRepo.CreateVideo(ctx, &models.Video{
		ID:           videoID,
		OriginalName: utils.SanitizeFilename(input.FileName),
		RawPath:      rawRel,
	})
	if err != nil {
		_ = os.Remove(v.layout.Abs(rawRel))
		return nil, errors.Wrap(err, "videoFileUC.CreateVideo.CreateVideo")
	}

	job := models.TranscodeJob{VideoID: video.ID, SourcePath: rawRel}
	if err := v.dispatcher.Dispatch(ctx, job); err != nil {
		v.logger.Errorf("videoFileUC.CreateVideo - dispatch %s: %v", video.ID, err)
		if mErr := v.videoRepo.MarkFailed(context.WithoutCancel(ctx), video.ID); mErr != nil {
			v.logger.Errorf("videoFileUC.CreateVideo - mark failed %s: %v", video.ID, mErr)
		}
		return nil, errors.Wrap(err, "videoFileUC.CreateVideo.Dispatch")
	}
	v.logger.Infof("videoFileUC.CreateVideo - accepted %s (%s, %d bytes)", video.ID, video.OriginalName, written)
	return &models.UploadResponse{VideoID: video.ID, Status: video.Status}, nil
}

// saveRaw streams body to disk, refusing anything past maxBytes.
func (v *videoFileUC) saveRaw(rel string, body io.Reader, maxBytes int64) (int64, error) {
	dst := v.layout.Abs(rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, errors.Wrap(err, "videoFileUC.saveRaw.MkdirAll")
	}
	f, err := os.Create(dst)
	if err != nil {
		return 0, errors.Wrap(err, "videoFileUC.saveRaw.Create")
	}
	n, err := io.Copy(f, io.LimitReader(body, maxBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > maxBytes {
		err = videofiles.ErrFileTooLarge
	}
	if err == nil && n == 0 {
		err = errors.New("empty upload")
	}
	if err != nil {
		_ = os.Remove(dst)
		return 0, errors.Wrap(err, "videoFileUC.saveRaw")
	}
	return n, nil
}

func (v *videoFileUC) GetVideo(ctx context.Context, videoID string) (*models.Video, error) {
	return v.videoRepo.GetVideoByID(ctx, videoID)
}

func (v *videoFileUC) GetStatus(ctx context.Context, videoID string) (*models.VideoStatusView, error) {
	video, err := v.videoRepo.GetVideoByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	base := path.Join(apiPrefix, "stream", video.ID)
	view := &models.VideoStatusView{
		VideoID:     video.ID,
		Status:      video.Status,
		Renditions:  make(map[string]*string, len(video.RenditionPaths)),
		DownloadURL: path.Join(apiPrefix, "video", video.ID, "download"),
		Duration:    video.Duration,
		Width:       video.SourceWidth,
		Height:      video.SourceHeight,
	}
	if video.Status == models.VideoStatusReady && video.MasterPlaylistPath != nil {
		u := path.Join(base, ffmpeg.PlaylistName)
		view.HlsURL = &u
	}
	for label, p := range video.RenditionPaths {
		if p == nil {
			view.Renditions[label] = nil
			continue
		}
		u := path.Join(base, label, ffmpeg.PlaylistName)
		view.Renditions[label] = &u
	}
	if video.ThumbnailPath != nil {
		u := path.Join(base, thumbnailFile)
		view.ThumbURL = &u
	}
	if video.Status == models.VideoStatusProcessing && v.redisRepo != nil {
		stage, err := v.redisRepo.GetStage(ctx, video.ID)
		if err != nil {
			v.logger.Warnf("videoFileUC.GetStatus - stage for %s: %v", video.ID, err)
		}
		view.Stage = string(stage)
	}
	return view, nil
}

func (v *videoFileUC) ResolveStreamFile(ctx context.Context, videoID, file string) (string, error) {
	video, err := v.videoRepo.GetVideoByID(ctx, videoID)
	if err != nil {
		return "", err
	}
	rel, err := streamRel(video, file)
	if err != nil {
		return "", err
	}
	abs := v.layout.Abs(rel)
	fi, err := os.Stat(abs)
	if err != nil || fi.IsDir() {
		return "", videofiles.ErrArtifactUnavailable
	}
	return abs, nil
}

func (v *videoFileUC) ResolveRawFile(video *models.Video) (string, error) {
	abs := v.layout.Abs(video.RawPath)
	fi, err := os.Stat(abs)
	if err != nil || fi.IsDir() {
		return "", videofiles.ErrArtifactUnavailable
	}
	return abs, nil
}

// streamRel validates a stream request and maps it into the layout.
func streamRel(video *models.Video, file string) (string, error) {
	if file == "" || strings.Contains(file, `\`) || strings.HasPrefix(file, "/") {
		return "", videofiles.ErrInvalidStreamPath
	}
	parts := strings.Split(file, "/")
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			return "", videofiles.ErrInvalidStreamPath
		}
	}
	switch len(parts) {
	case 1:
		switch parts[0] {
		case thumbnailFile:
			if video.ThumbnailPath == nil {
				return "", videofiles.ErrArtifactUnavailable
			}
			return *video.ThumbnailPath, nil
		case ffmpeg.PlaylistName:
			if video.MasterPlaylistPath == nil {
				return "", videofiles.ErrArtifactUnavailable
			}
			return *video.MasterPlaylistPath, nil
		}
	case 2:
		if _, ok := models.FindResolution(parts[0]); !ok {
			return "", videofiles.ErrInvalidStreamPath
		}
		if parts[1] == ffmpeg.PlaylistName || segmentName.MatchString(parts[1]) {
			if video.RenditionPaths[parts[0]] == nil {
				return "", videofiles.ErrArtifactUnavailable
			}
			return path.Join(transcode.RenditionDirRel(video.ID, parts[0]), parts[1]), nil
		}
	}
	return "", videofiles.ErrInvalidStreamPath
}

func (v *videoFileUC) DeleteVideo(ctx context.Context, videoID string) error {
	video, err := v.videoRepo.GetVideoByID(ctx, videoID)
	if err != nil {
		return err
	}
	if video.Status == models.VideoStatusProcessing {
		if err := v.dispatcher.Cancel(ctx, video.ID); err != nil {
			v.logger.Warnf("videoFileUC.DeleteVideo - cancel %s: %v", video.ID, err)
		}
	}
	if err := v.videoRepo.DeleteVideo(ctx, video.ID); err != nil {
		return errors.Wrap(err, "videoFileUC.DeleteVideo.DeleteVideo")
	}

	for _, rel := range []string{video.RawPath, transcode.HLSRel(video.ID), transcode.ThumbnailRel(video.ID)} {
		if err := os.RemoveAll(v.layout.Abs(rel)); err != nil {
			v.logger.Warnf("videoFileUC.DeleteVideo - remove %s: %v", rel, err)
		}
	}
	if v.awsRepo != nil && v.cfg.S3.Enabled {
		v.removePublished(ctx, video.ID)
	}
	v.logger.Infof("videoFileUC.DeleteVideo - deleted %s", video.ID)
	return nil
}

func (v *videoFileUC) removePublished(ctx context.Context, videoID string) {
	bucket := v.cfg.S3.OutputBucket
	keys, err := v.awsRepo.ListObjects(ctx, bucket, transcode.HLSRel(videoID)+"/")
	if err != nil {
		v.logger.Warnf("videoFileUC.DeleteVideo - list published %s: %v", videoID, err)
		return
	}
	keys = append(keys, transcode.ThumbnailRel(videoID))
	for _, key := range keys {
		if err := v.awsRepo.RemoveObject(ctx, bucket, key); err != nil {
			v.logger.Warnf("videoFileUC.DeleteVideo - remove published %s: %v", key, err)
		}
	}
}

// ResumePending re-dispatches records left processing by a previous
// process. Records whose source is gone are marked failed.
func (v *videoFileUC) ResumePending(ctx context.Context) (int, error) {
	pending, err := v.videoRepo.ListByStatus(ctx, models.VideoStatusProcessing)
	if err != nil {
		return 0, errors.Wrap(err, "videoFileUC.ResumePending.ListByStatus")
	}
	resumed := 0
	for _, video := range pending {
		if _, err := os.Stat(v.layout.Abs(video.RawPath)); err != nil {
			v.logger.Warnf("videoFileUC.ResumePending - source for %s missing, marking failed", video.ID)
			if err := v.videoRepo.MarkFailed(ctx, video.ID); err != nil {
				v.logger.Errorf("videoFileUC.ResumePending - mark failed %s: %v", video.ID, err)
			}
			continue
		}
		if err := v.dispatcher.Dispatch(ctx, models.TranscodeJob{VideoID: video.ID, SourcePath: video.RawPath, Attempt: 1}); err != nil {
			return resumed, errors.Wrap(err, "videoFileUC.ResumePending.Dispatch")
		}
		resumed++
	}
	return resumed, nil
}

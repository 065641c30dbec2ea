package videofiles

import "errors"

var (
	ErrVideoNotFound       = errors.New("video not found")
	ErrNotProcessing       = errors.New("video is no longer processing")
	ErrUnsupportedFormat   = errors.New("unsupported file format")
	ErrFileTooLarge        = errors.New("file exceeds the upload limit")
	ErrInvalidStreamPath   = errors.New("invalid stream path")
	ErrArtifactUnavailable = errors.New("artifact not available")
)

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type VideoStatus string

const (
	VideoStatusProcessing VideoStatus = "processing"
	VideoStatusReady      VideoStatus = "ready"
	VideoStatusError      VideoStatus = "error"
)

func (s VideoStatus) Terminal() bool {
	return s == VideoStatusReady || s == VideoStatusError
}

// RenditionPaths maps a resolution label to its playlist path. A nil entry
// marks a resolution that was attempted and failed.
type RenditionPaths map[string]*string

func (r RenditionPaths) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *RenditionPaths) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*r = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("rendition paths: unsupported type %T", src)
	}
	if len(data) == 0 {
		*r = nil
		return nil
	}
	return json.Unmarshal(data, r)
}

type Video struct {
	ID                 string         `json:"id" db:"id" validate:"required,uuid"`
	OriginalName       string         `json:"original_name" db:"original_name" validate:"required"`
	RawPath            string         `json:"raw_path" db:"raw_path" validate:"required"`
	Status             VideoStatus    `json:"status" db:"status"`
	MasterPlaylistPath *string        `json:"master_playlist_path" db:"master_playlist_path"`
	RenditionPaths     RenditionPaths `json:"rendition_paths" db:"rendition_paths"`
	ThumbnailPath      *string        `json:"thumbnail_path" db:"thumbnail_path"`
	Duration           *float64       `json:"duration" db:"duration"`
	SourceWidth        *int           `json:"source_width" db:"source_width"`
	SourceHeight       *int           `json:"source_height" db:"source_height"`
	CreatedAt          time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at" db:"updated_at"`
}

// VideoResult is everything the orchestrator commits with a ready record.
type VideoResult struct {
	MasterPlaylistPath string
	RenditionPaths     RenditionPaths
	ThumbnailPath      *string
	Duration           float64
	Width              int
	Height             int
}

type VideoUploadInput struct {
	FileName string `validate:"required"`
	Size     int64  `validate:"gt=0"`
}

type UploadResponse struct {
	VideoID string      `json:"videoId"`
	Status  VideoStatus `json:"status"`
}

// VideoStatusView is the polling representation served to clients.
type VideoStatusView struct {
	VideoID     string             `json:"videoId"`
	Status      VideoStatus        `json:"status"`
	Stage       string             `json:"stage,omitempty"`
	HlsURL      *string            `json:"hlsUrl"`
	Renditions  map[string]*string `json:"renditions"`
	ThumbURL    *string            `json:"thumbUrl"`
	DownloadURL string             `json:"downloadUrl"`
	Duration    *float64           `json:"duration"`
	Width       *int               `json:"width"`
	Height      *int               `json:"height"`
}

package models

import (
	"encoding/json"
	"time"
)

type TranscodeStage string

const (
	StageStarted    TranscodeStage = "started"
	StageProbing    TranscodeStage = "probing"
	StageSelecting  TranscodeStage = "selecting"
	StageEncoding   TranscodeStage = "encoding"
	StageFinalizing TranscodeStage = "finalizing"
	StageReady      TranscodeStage = "ready"
	StageError      TranscodeStage = "error"
)

// TranscodeJob is the unit handed to a dispatcher. SourcePath is relative to
// the storage root.
type TranscodeJob struct {
	VideoID    string    `json:"video_id" redis:"video_id" validate:"required"`
	SourcePath string    `json:"source_path" redis:"source_path" validate:"required"`
	Attempt    int       `json:"attempt" redis:"attempt"`
	QueuedAt   time.Time `json:"queued_at" redis:"queued_at"`
}

func (j *TranscodeJob) MarshalBinary() ([]byte, error) {
	return json.Marshal(j)
}

func (j *TranscodeJob) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, j)
}

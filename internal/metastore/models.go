package metastore

import (
	"strings"
	"time"
)

const (
	AnalysisStatusPending   = "pending"
	AnalysisStatusCompleted = "completed"
	AnalysisStatusFailed    = "failed"
)

// FrameCaption is one captioned frame within a clip's analysis, keyed by
// the clip-relative HH:MM:SS timecode. Order is the analysis order.
type FrameCaption struct {
	Timecode string `json:"timecode"`
	Text     string `json:"text"`
}

// Analysis is the per-clip record under video_analysis/{user}/{clip}.
type Analysis struct {
	UserID      string         `json:"user_id"`
	ClipID      string         `json:"id"`
	Status      string         `json:"status"`
	Frames      []FrameCaption `json:"frame_descriptions"`
	Summary     string         `json:"summary"`
	ProcessedAt time.Time      `json:"processed_at"`
}

// Project is the record under projects/{user}/{project}.
type Project struct {
	UserID      string    `json:"user_id"`
	ProjectID   string    `json:"project_id"`
	VideoIDs    []string  `json:"video_ids"`
	Timeline    string    `json:"timeline"`
	OutputPath  string    `json:"output_filename"`
	PreviewPath string    `json:"preview_filename,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

var keySanitizer = strings.NewReplacer(
	".", "_",
	"#", "_",
	"$", "_",
	"[", "_",
	"]", "_",
	"/", "_",
)

// SanitizeKey makes an identifier safe for use as a store path segment by
// replacing the characters . # $ [ ] / with underscores.
func SanitizeKey(key string) string {
	return keySanitizer.Replace(key)
}

package api

import (
	"strings"
	"time"

	"github.com/reelcut/reelcut-server/internal/metastore"
	"github.com/reelcut/reelcut-server/internal/storage"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type ProcessVideoRequest struct {
	UserID        string `json:"user_id"`
	VideoFilename string `json:"video_filename"`
}

type ProcessVideoResponse struct {
	Message string `json:"message"`
	VideoID string `json:"video_id"`
	UserID  string `json:"user_id"`
	Status  string `json:"status"`
}

type VideoEntry struct {
	UserID        string    `json:"user_id"`
	VideoFilename string    `json:"video_filename"`
	Path          string    `json:"path"`
	Size          int64     `json:"size"`
	Updated       time.Time `json:"updated"`
}

type VideosResponse struct {
	Videos []VideoEntry `json:"videos"`
}

type NewProjectRequest struct {
	UserID    string   `json:"user_id"`
	ProjectID string   `json:"project_id"`
	VideoIDs  []string `json:"video_ids"`
}

type NewProjectResponse struct {
	ProjectID      string `json:"project_id"`
	UserID         string `json:"user_id"`
	Status         string `json:"status"`
	Message        string `json:"message"`
	OutputFilename string `json:"output_filename,omitempty"`
}

// RenderVideoRequest carries keep segments as [start, end] pairs in
// seconds, matching the uploader clients' wire shape. A nil SegmentsToKeep
// means derive from cut markers; an empty one is rejected.
type RenderVideoRequest struct {
	UserID         string       `json:"user_id"`
	ProjectID      string       `json:"project_id"`
	SegmentsToKeep [][2]float64 `json:"segments_to_keep,omitempty"`
	AudioFileName  string       `json:"audio_file_name,omitempty"`
}

type RenderVideoResponse struct {
	ProjectID      string `json:"project_id"`
	UserID         string `json:"user_id"`
	Status         string `json:"status"`
	Message        string `json:"message"`
	OutputFilename string `json:"output_filename,omitempty"`
}

type ProjectSummaryResponse struct {
	Project        *metastore.Project `json:"project"`
	FullPresent    bool               `json:"full_present"`
	PreviewPresent bool               `json:"preview_present"`
}

type ExportRequest struct {
	FrameRate float64 `json:"frame_rate"`
}

type ExportResponse struct {
	Format  string `json:"format"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type HighlightsRequest struct {
	UserID        string `json:"user_id"`
	ProjectID     string `json:"project_id"`
	SceneInterval int    `json:"scene_interval,omitempty"`
	UserPrompt    string `json:"user_prompt,omitempty"`
}

type ChatAskRequest struct {
	Question  string `json:"question"`
	UserID    string `json:"user_id"`
	ProjectID string `json:"project_id"`
	SessionID string `json:"session_id,omitempty"`
}

func objectToVideoEntry(obj storage.ObjectInfo) VideoEntry {
	entry := VideoEntry{
		Path:    obj.Path,
		Size:    obj.Size,
		Updated: obj.Updated,
	}
	// Paths follow videos/{user}/{filename}.
	parts := strings.Split(obj.Path, "/")
	if len(parts) >= 3 {
		entry.UserID = parts[1]
		entry.VideoFilename = parts[2]
	}
	return entry
}

// Package storage defines the blob store contract the core depends on and
// its two implementations: an HTTP client for a remote store and a local
// filesystem store for development and tests.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound reports an absent blob. User-correctable; surfaced as a
// client error at the API layer.
var ErrNotFound = errors.New("blob not found")

// ObjectInfo describes one stored blob.
type ObjectInfo struct {
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	Updated time.Time `json:"updated"`
}

// BlobStore is the blob store surface consumed by staging and the project
// services.
type BlobStore interface {
	Exists(ctx context.Context, path string) (bool, error)
	// Download copies the blob at path into localPath. Returns ErrNotFound
	// when the blob is absent.
	Download(ctx context.Context, path, localPath string) error
	Upload(ctx context.Context, localPath, path string) error
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

// Path scheme shared with the original uploader clients.

// ClipPath locates an uploaded source clip.
func ClipPath(userID, clipID string) string {
	return fmt.Sprintf("videos/%s/%s", userID, clipID)
}

// ProjectFullPath locates a project's concatenated full-length media.
func ProjectFullPath(userID, projectID string) string {
	return fmt.Sprintf("projects/%s/%s/full.mp4", userID, projectID)
}

// ProjectPreviewPath locates a project's rendered preview.
func ProjectPreviewPath(userID, projectID string) string {
	return fmt.Sprintf("projects/%s/%s/preview.mp4", userID, projectID)
}

// MusicPath locates an uploaded replacement audio track.
func MusicPath(userID, projectID, fileName string) string {
	return fmt.Sprintf("MusicFiles/%s/%s/%s", userID, projectID, fileName)
}

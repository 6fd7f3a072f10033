// Package staging moves blobs between the remote store and request-scoped
// local working directories, and probes staged media. Every operation works
// inside a Workspace whose contents are removed on all exit paths.
package staging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/reelcut/reelcut-server/internal/render"
	"github.com/reelcut/reelcut-server/internal/storage"
)

// Workspace is one request's temporary working area.
type Workspace struct {
	dir string
}

// Dir returns the workspace root.
func (w *Workspace) Dir() string {
	return w.dir
}

// Path returns the location for a named working file.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// Close removes the workspace and everything staged into it.
func (w *Workspace) Close() error {
	return os.RemoveAll(w.dir)
}

// Stager binds the blob store and the encoder's probe into the staging
// contract consumed by the services.
type Stager struct {
	store       storage.BlobStore
	enc         render.Encoder
	concurrency int
	logger      *slog.Logger
}

func NewStager(store storage.BlobStore, enc render.Encoder, concurrency int, logger *slog.Logger) *Stager {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Stager{store: store, enc: enc, concurrency: concurrency, logger: logger}
}

// NewWorkspace creates a fresh temporary working area.
func (s *Stager) NewWorkspace() (*Workspace, error) {
	dir, err := os.MkdirTemp("", "reelcut-*")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{dir: dir}, nil
}

// Stage downloads one blob into the workspace and returns its local path.
// Returns storage.ErrNotFound (wrapped) when the blob is absent.
func (s *Stager) Stage(ctx context.Context, ws *Workspace, remotePath string) (string, error) {
	localPath := ws.Path(filepath.Base(remotePath))
	if err := s.store.Download(ctx, remotePath, localPath); err != nil {
		return "", fmt.Errorf("stage %s: %w", remotePath, err)
	}
	return localPath, nil
}

// StageAll downloads independent blobs with bounded parallelism. Results
// are returned in input order regardless of completion order; local names
// are index-prefixed so equal basenames cannot collide.
func (s *Stager) StageAll(ctx context.Context, ws *Workspace, remotePaths []string) ([]string, error) {
	localPaths := make([]string, len(remotePaths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, remote := range remotePaths {
		i, remote := i, remote
		g.Go(func() error {
			local := ws.Path(fmt.Sprintf("%03d_%s", i, filepath.Base(remote)))
			if err := s.store.Download(gctx, remote, local); err != nil {
				return fmt.Errorf("stage %s: %w", remote, err)
			}
			localPaths[i] = local
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Debug("staged blobs", "count", len(localPaths))
	}
	return localPaths, nil
}

// ProbeDuration returns the duration in seconds of a staged media file.
func (s *Stager) ProbeDuration(ctx context.Context, localPath string) (float64, error) {
	probe, err := s.enc.Probe(ctx, localPath)
	if err != nil {
		return 0, err
	}
	return probe.Duration, nil
}

// Upload pushes a finished artifact to the remote store.
func (s *Stager) Upload(ctx context.Context, localPath, remotePath string) error {
	return s.store.Upload(ctx, localPath, remotePath)
}

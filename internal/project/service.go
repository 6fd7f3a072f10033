// Package project orchestrates the core control flow: assembling a project
// from analyzed clips into a concatenated full cut, and rendering previews
// by excising or selecting time segments of that cut.
package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/reelcut/reelcut-server/internal/cutlist"
	"github.com/reelcut/reelcut-server/internal/export"
	"github.com/reelcut/reelcut-server/internal/logging"
	"github.com/reelcut/reelcut-server/internal/metastore"
	"github.com/reelcut/reelcut-server/internal/render"
	"github.com/reelcut/reelcut-server/internal/staging"
	"github.com/reelcut/reelcut-server/internal/storage"
	"github.com/reelcut/reelcut-server/internal/timecode"
	"github.com/reelcut/reelcut-server/internal/timeline"
)

// ErrNoClips rejects project creation with an empty clip list.
var ErrNoClips = errors.New("no clip ids provided for the project")

type Service struct {
	store    storage.BlobStore
	repo     metastore.Repository
	stager   *staging.Stager
	enc      render.Encoder
	pipeline *render.Pipeline
	logger   *slog.Logger

	renderLocks *keyedMutex
}

func NewService(store storage.BlobStore, repo metastore.Repository, stager *staging.Stager, enc render.Encoder, logger *slog.Logger) *Service {
	return &Service{
		store:       store,
		repo:        repo,
		stager:      stager,
		enc:         enc,
		pipeline:    render.NewPipeline(enc, logger),
		logger:      logger,
		renderLocks: newKeyedMutex(),
	}
}

// Create assembles a project: every clip must have a completed analysis and
// a present source blob before any work starts. Clips are staged in
// parallel, durations probed from the staged media, the timeline built with
// running offsets, and the clips losslessly concatenated into full.mp4.
// Nothing is persisted unless every step succeeds.
func (s *Service) Create(ctx context.Context, userID, projectID string, clipIDs []string) (*metastore.Project, error) {
	if len(clipIDs) == 0 {
		return nil, ErrNoClips
	}

	analyses := make([]*metastore.Analysis, len(clipIDs))
	remotePaths := make([]string, len(clipIDs))
	for i, clipID := range clipIDs {
		a, err := s.repo.GetAnalysis(ctx, userID, clipID)
		if err != nil {
			return nil, fmt.Errorf("load analysis for %s: %w", clipID, err)
		}
		if a == nil || a.Status != metastore.AnalysisStatusCompleted {
			return nil, &timeline.NotReadyError{ClipID: clipID}
		}
		analyses[i] = a

		remote := storage.ClipPath(userID, clipID)
		exists, err := s.store.Exists(ctx, remote)
		if err != nil {
			return nil, fmt.Errorf("check source for %s: %w", clipID, err)
		}
		if !exists {
			return nil, &timeline.MissingSourceError{ClipID: clipID}
		}
		remotePaths[i] = remote
	}

	ws, err := s.stager.NewWorkspace()
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	locals, err := s.stager.StageAll(ctx, ws, remotePaths)
	if err != nil {
		return nil, err
	}

	clips := make([]timeline.Clip, len(clipIDs))
	for i, clipID := range clipIDs {
		duration, err := s.stager.ProbeDuration(ctx, locals[i])
		if err != nil {
			return nil, fmt.Errorf("probe duration of %s: %w", clipID, err)
		}
		clips[i] = timeline.Clip{
			ID:       clipID,
			Frames:   s.framesOf(analyses[i]),
			Duration: duration,
		}
	}

	entries := timeline.Build(clips)
	timelineText := timeline.Marshal(entries)

	localFull := ws.Path(projectID + "_full.mp4")
	if err := s.enc.Concat(ctx, locals, localFull); err != nil {
		return nil, err
	}

	fullPath := storage.ProjectFullPath(userID, projectID)
	if err := s.stager.Upload(ctx, localFull, fullPath); err != nil {
		return nil, fmt.Errorf("upload full cut: %w", err)
	}

	project := &metastore.Project{
		UserID:     userID,
		ProjectID:  projectID,
		VideoIDs:   clipIDs,
		Timeline:   timelineText,
		OutputPath: fullPath,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.PutProject(ctx, project); err != nil {
		return nil, fmt.Errorf("persist project: %w", err)
	}

	logging.WithProject(s.logger, userID, projectID).Info("project created",
		"clips", len(clipIDs), "timeline_entries", len(entries))
	return project, nil
}

// framesOf converts an analysis record's captions into builder frames.
// Captions with unparseable timecodes were written by us and should not
// exist, but a bad one is skipped rather than failing the whole project.
func (s *Service) framesOf(a *metastore.Analysis) []timeline.Frame {
	frames := make([]timeline.Frame, 0, len(a.Frames))
	for _, fc := range a.Frames {
		at, err := timecode.Decode(fc.Timecode)
		if err != nil {
			s.logger.Warn("skipping frame caption with bad timecode",
				"clip_id", a.ClipID, "timecode", fc.Timecode, "error", err)
			continue
		}
		frames = append(frames, timeline.Frame{At: at, Text: fc.Text})
	}
	return frames
}

// Render produces the project's preview artifact. The keep-list comes from
// explicitSegments verbatim when non-nil, otherwise it is derived from the
// persisted timeline's cut markers against the probed full-cut duration.
// A named replacement audio file that is absent from storage downgrades to
// the original audio with a warning. Renders for the same project are
// serialized.
func (s *Service) Render(ctx context.Context, userID, projectID string, explicitSegments []cutlist.Segment, audioFileName string) (*metastore.Project, error) {
	unlock := s.renderLocks.Lock(userID + "/" + projectID)
	defer unlock()

	project, err := s.loadProject(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	exists, err := s.store.Exists(ctx, project.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("check full cut: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, project.OutputPath)
	}

	ws, err := s.stager.NewWorkspace()
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	localFull, err := s.stager.Stage(ctx, ws, project.OutputPath)
	if err != nil {
		return nil, err
	}
	totalDuration, err := s.stager.ProbeDuration(ctx, localFull)
	if err != nil {
		return nil, fmt.Errorf("probe full cut duration: %w", err)
	}

	entries := timeline.Parse(project.Timeline, s.logger)
	segments, err := cutlist.Resolve(explicitSegments, entries, totalDuration, s.logger)
	if err != nil {
		return nil, err
	}

	audioPath := ""
	if audioFileName != "" {
		audioPath, err = s.stageAudio(ctx, ws, userID, projectID, audioFileName)
		if err != nil {
			return nil, err
		}
	}

	localPreview := ws.Path(projectID + "_preview.mp4")
	if err := s.pipeline.Render(ctx, localFull, segments, totalDuration, audioPath, localPreview); err != nil {
		return nil, err
	}

	previewPath := storage.ProjectPreviewPath(userID, projectID)
	if err := s.stager.Upload(ctx, localPreview, previewPath); err != nil {
		return nil, fmt.Errorf("upload preview: %w", err)
	}
	if err := s.repo.UpdateProjectPreview(ctx, userID, projectID, previewPath); err != nil {
		return nil, fmt.Errorf("update preview pointer: %w", err)
	}

	logging.WithProject(s.logger, userID, projectID).Info("project rendered",
		"segments", len(segments), "replacement_audio", audioPath != "")

	project.PreviewPath = previewPath
	return project, nil
}

// stageAudio fetches the replacement track. A missing blob is a soft
// failure: the render proceeds with the original audio.
func (s *Service) stageAudio(ctx context.Context, ws *staging.Workspace, userID, projectID, fileName string) (string, error) {
	remote := storage.MusicPath(userID, projectID, fileName)
	exists, err := s.store.Exists(ctx, remote)
	if err != nil {
		return "", fmt.Errorf("check audio file: %w", err)
	}
	if !exists {
		s.logger.Warn("replacement audio not found, keeping original audio",
			"user_id", userID, "project_id", projectID, "audio", fileName)
		return "", nil
	}
	return s.stager.Stage(ctx, ws, remote)
}

// Summary reports a project's metadata plus the presence of its artifacts
// in storage.
type Summary struct {
	Project        *metastore.Project `json:"project"`
	FullPresent    bool               `json:"full_present"`
	PreviewPresent bool               `json:"preview_present"`
}

func (s *Service) Summarize(ctx context.Context, userID, projectID string) (*Summary, error) {
	project, err := s.loadProject(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	full, err := s.store.Exists(ctx, project.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("check full cut: %w", err)
	}
	preview := false
	if project.PreviewPath != "" {
		preview, err = s.store.Exists(ctx, project.PreviewPath)
		if err != nil {
			return nil, fmt.Errorf("check preview: %w", err)
		}
	}

	return &Summary{Project: project, FullPresent: full, PreviewPresent: preview}, nil
}

// ExportEDL resolves the project's derived keep-list and renders it as a
// CMX 3600 EDL referencing the full cut in storage.
func (s *Service) ExportEDL(ctx context.Context, userID, projectID string, frameRate float64) (string, error) {
	if err := export.ValidateFrameRate(frameRate); err != nil {
		return "", err
	}

	project, err := s.loadProject(ctx, userID, projectID)
	if err != nil {
		return "", err
	}

	ws, err := s.stager.NewWorkspace()
	if err != nil {
		return "", err
	}
	defer ws.Close()

	localFull, err := s.stager.Stage(ctx, ws, project.OutputPath)
	if err != nil {
		return "", err
	}
	totalDuration, err := s.stager.ProbeDuration(ctx, localFull)
	if err != nil {
		return "", fmt.Errorf("probe full cut duration: %w", err)
	}

	entries := timeline.Parse(project.Timeline, s.logger)
	segments, err := cutlist.Resolve(nil, entries, totalDuration, s.logger)
	if err != nil {
		return "", err
	}

	title := export.SanitizeName(projectID, 64)
	return export.GenerateEDL(title, project.OutputPath, segments, frameRate), nil
}

func (s *Service) loadProject(ctx context.Context, userID, projectID string) (*metastore.Project, error) {
	project, err := s.repo.GetProject(ctx, userID, projectID)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	if project == nil {
		return nil, fmt.Errorf("%w: project %s", storage.ErrNotFound, projectID)
	}
	if project.OutputPath == "" {
		return nil, fmt.Errorf("%w: project %s has no full cut", storage.ErrNotFound, projectID)
	}
	return project, nil
}

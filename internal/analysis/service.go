// Package analysis orchestrates per-clip frame analysis: sampling frames
// from a staged clip, captioning each through the oracle, summarizing, and
// persisting the analysis record. Captioning itself is an opaque external
// call; only the orchestration lives here.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/reelcut/reelcut-server/internal/metastore"
	"github.com/reelcut/reelcut-server/internal/oracle"
	"github.com/reelcut/reelcut-server/internal/render"
	"github.com/reelcut/reelcut-server/internal/staging"
	"github.com/reelcut/reelcut-server/internal/storage"
	"github.com/reelcut/reelcut-server/internal/timecode"
)

const (
	// DefaultFrameInterval is the seconds between sampled frames. Frames
	// are taken at interval midpoints: 3s, 9s, 15s... for the default.
	DefaultFrameInterval = 6.0

	captionPrompt = "Provide a very brief, precise caption of the main content in this image (max 2 sentences). Focus on key objects, actions, and context."
)

type Service struct {
	store         storage.BlobStore
	repo          metastore.Repository
	stager        *staging.Stager
	enc           render.Encoder
	oracle        oracle.Oracle
	logger        *slog.Logger
	FrameInterval float64
}

func NewService(store storage.BlobStore, repo metastore.Repository, stager *staging.Stager, enc render.Encoder, orc oracle.Oracle, logger *slog.Logger) *Service {
	return &Service{
		store:         store,
		repo:          repo,
		stager:        stager,
		enc:           enc,
		oracle:        orc,
		logger:        logger,
		FrameInterval: DefaultFrameInterval,
	}
}

// ProcessClip analyzes one uploaded clip end to end and persists the
// completed record. Individual frame failures are skipped with a warning;
// a missing clip or a failed summary aborts the whole operation.
func (s *Service) ProcessClip(ctx context.Context, userID, clipID string) (*metastore.Analysis, error) {
	clipPath := storage.ClipPath(userID, clipID)

	exists, err := s.store.Exists(ctx, clipPath)
	if err != nil {
		return nil, fmt.Errorf("check clip existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, clipPath)
	}

	ws, err := s.stager.NewWorkspace()
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	localClip, err := s.stager.Stage(ctx, ws, clipPath)
	if err != nil {
		return nil, err
	}

	duration, err := s.stager.ProbeDuration(ctx, localClip)
	if err != nil {
		return nil, fmt.Errorf("probe clip duration: %w", err)
	}

	var frames []metastore.FrameCaption
	var captions []string

	interval := s.FrameInterval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}

	// Sample at segment midpoints so each caption represents its window.
	for at := interval / 2; at < duration; at += interval {
		framePath := ws.Path(fmt.Sprintf("frame_%d.jpg", int(at*1000)))
		if err := s.enc.ExtractFrame(ctx, localClip, at, framePath); err != nil {
			s.logger.Warn("skipping frame, extraction failed", "clip", clipID, "at", at, "error", err)
			continue
		}

		image, err := os.ReadFile(framePath)
		if err != nil {
			s.logger.Warn("skipping frame, unreadable", "clip", clipID, "at", at, "error", err)
			continue
		}

		caption, err := s.oracle.CaptionImage(ctx, image, captionPrompt)
		if err != nil {
			s.logger.Warn("skipping frame, caption failed", "clip", clipID, "at", at, "error", err)
			continue
		}

		frames = append(frames, metastore.FrameCaption{
			Timecode: timecode.Encode(at),
			Text:     caption,
		})
		captions = append(captions, caption)
	}

	summary, err := s.summarize(ctx, captions)
	if err != nil {
		return nil, fmt.Errorf("summarize captions: %w", err)
	}

	record := &metastore.Analysis{
		UserID:      userID,
		ClipID:      metastore.SanitizeKey(clipID),
		Status:      metastore.AnalysisStatusCompleted,
		Frames:      frames,
		Summary:     summary,
		ProcessedAt: time.Now().UTC(),
	}
	if err := s.repo.PutAnalysis(ctx, record); err != nil {
		return nil, fmt.Errorf("persist analysis: %w", err)
	}

	s.logger.Info("clip analysis completed",
		"user_id", userID, "clip_id", clipID,
		"frames", len(frames), "duration", duration,
	)
	return record, nil
}

func (s *Service) summarize(ctx context.Context, captions []string) (string, error) {
	if len(captions) == 0 {
		return "", nil
	}
	prompt := "Summarize the video described by these frame captions in a few sentences:\n" +
		strings.Join(captions, "\n")
	return s.oracle.Complete(ctx, prompt)
}

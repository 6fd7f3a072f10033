// Package highlights turns a project's timecoded description into a
// scene-by-scene highlights reel. Two modes: fixed-interval bucketing with
// per-scene summaries, and free-form selection driven by a viewer prompt.
package highlights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/reelcut/reelcut-server/internal/metastore"
	"github.com/reelcut/reelcut-server/internal/oracle"
	"github.com/reelcut/reelcut-server/internal/storage"
	"github.com/reelcut/reelcut-server/internal/timecode"
	"github.com/reelcut/reelcut-server/internal/timeline"
)

// DefaultSceneInterval is the scene window length in seconds.
const DefaultSceneInterval = 12

const fallbackSceneSummary = "No summary available for this scene."

// ErrNoDescriptions means the project timeline holds no parseable
// timecoded annotations to build scenes from.
var ErrNoDescriptions = errors.New("no frame descriptions found for project")

// Scene is one entry of the reel.
type Scene struct {
	SceneID        int    `json:"scene_id"`
	StartTimestamp string `json:"start_timestamp"`
	EndTimestamp   string `json:"end_timestamp"`
	Description    string `json:"description"`
}

// Reel is the full highlights result for a project.
type Reel struct {
	UserID      string    `json:"user_id"`
	ProjectID   string    `json:"project_id"`
	Highlights  []Scene   `json:"highlights"`
	TotalScenes int       `json:"total_scenes"`
	GeneratedAt time.Time `json:"generated_at"`
}

type Service struct {
	repo   metastore.Repository
	oracle oracle.Oracle
	logger *slog.Logger
}

func NewService(repo metastore.Repository, orc oracle.Oracle, logger *slog.Logger) *Service {
	return &Service{repo: repo, oracle: orc, logger: logger}
}

// Generate builds the reel. A non-empty userPrompt switches to prompted
// selection; otherwise the timeline is bucketed into sceneInterval windows.
func (s *Service) Generate(ctx context.Context, userID, projectID string, sceneInterval int, userPrompt string) (*Reel, error) {
	if sceneInterval <= 0 {
		sceneInterval = DefaultSceneInterval
	}

	project, err := s.repo.GetProject(ctx, userID, projectID)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	if project == nil || project.Timeline == "" {
		return nil, fmt.Errorf("%w: project %s", storage.ErrNotFound, projectID)
	}

	var scenes []Scene
	if userPrompt != "" {
		scenes, err = s.promptedScenes(ctx, project.Timeline, sceneInterval, userPrompt)
	} else {
		scenes, err = s.bucketedScenes(ctx, project.Timeline, sceneInterval)
	}
	if err != nil {
		return nil, err
	}

	return &Reel{
		UserID:      userID,
		ProjectID:   projectID,
		Highlights:  scenes,
		TotalScenes: len(scenes),
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// bucketedScenes slices the annotation timeline into consecutive windows
// and asks the oracle for a one-sentence summary of each. A failed summary
// degrades to a placeholder rather than failing the reel.
func (s *Service) bucketedScenes(ctx context.Context, timelineText string, sceneInterval int) ([]Scene, error) {
	entries := timeline.Parse(timelineText, s.logger)

	var annotations []timeline.Entry
	for _, e := range entries {
		if e.Kind == timeline.KindAnnotation {
			annotations = append(annotations, e)
		}
	}
	if len(annotations) == 0 {
		return nil, ErrNoDescriptions
	}

	videoDuration := annotations[len(annotations)-1].At

	var scenes []Scene
	for start := 0.0; start < videoDuration; {
		end := start + float64(sceneInterval)
		if end > videoDuration {
			end = videoDuration
		}

		var captions []string
		for _, a := range annotations {
			if a.At >= start && a.At < end {
				captions = append(captions, fmt.Sprintf("At %s: %s", timecode.Encode(a.At), a.Text))
			}
		}

		scenes = append(scenes, Scene{
			SceneID:        len(scenes) + 1,
			StartTimestamp: timecode.Encode(start),
			EndTimestamp:   timecode.Encode(end),
			Description:    s.summarizeScene(ctx, captions),
		})
		start = end
	}
	return scenes, nil
}

func (s *Service) summarizeScene(ctx context.Context, captions []string) string {
	if len(captions) == 0 {
		return fallbackSceneSummary
	}
	if len(captions) > 3 {
		captions = captions[:3]
	}
	prompt := "Create a single concise sentence that summarizes this scene based on these frame descriptions:\n" +
		strings.Join(captions, "\n")

	summary, err := s.oracle.Complete(ctx, prompt)
	if err != nil {
		s.logger.Warn("scene summary failed, using placeholder", "error", err)
		return fallbackSceneSummary
	}
	return summary
}

// promptedScenes delegates scene selection entirely to the oracle and
// parses the JSON array it returns.
func (s *Service) promptedScenes(ctx context.Context, timelineText string, sceneInterval int, userPrompt string) ([]Scene, error) {
	prompt := fmt.Sprintf(
		"You are an AI video editor. Based on the following video frame descriptions, "+
			"identify and summarize key scenes that are relevant to the user's request: '%s'. "+
			"Segment the video into scenes approximately every %d seconds. "+
			"For each *relevant* scene, provide a concise summary. "+
			"Return ONLY a valid JSON array of objects, where each object has "+
			"'start_timestamp' (string, HH:MM:SS), 'end_timestamp' (string, HH:MM:SS), "+
			"'description' (string, single concise sentence summarizing the scene). "+
			"Do not include any text outside the JSON array.\n\n"+
			"Video Frame Descriptions (HH:MM:SS: description):\n%s\n\n"+
			"Relevant Highlights (JSON array):",
		userPrompt, sceneInterval, timelineText,
	)

	text, err := s.oracle.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("prompted highlights generation: %w", err)
	}

	scenes, err := parseSceneJSON(text)
	if err != nil {
		return nil, fmt.Errorf("prompted highlights generation: %w", err)
	}

	for i := range scenes {
		scenes[i].SceneID = i + 1
		if scenes[i].StartTimestamp == "" {
			scenes[i].StartTimestamp = "00:00:00"
		}
		if scenes[i].EndTimestamp == "" {
			scenes[i].EndTimestamp = "00:00:00"
		}
		if scenes[i].Description == "" {
			scenes[i].Description = "No description."
		}
	}
	return scenes, nil
}

// parseSceneJSON tolerates markdown fences and stray prose around the
// array, which models emit despite instructions.
func parseSceneJSON(text string) ([]Scene, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var scenes []Scene
	if err := json.Unmarshal([]byte(text), &scenes); err == nil {
		return scenes, nil
	}

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end == -1 || start >= end {
		return nil, errors.New("response contains no JSON array")
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &scenes); err != nil {
		return nil, fmt.Errorf("decode highlight scenes: %w", err)
	}
	return scenes, nil
}

package highlights

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reelcut/reelcut-server/internal/metastore"
	"github.com/reelcut/reelcut-server/internal/storage"
)

type projectRepo struct {
	project *metastore.Project
}

func (r *projectRepo) GetAnalysis(ctx context.Context, userID, clipID string) (*metastore.Analysis, error) {
	return nil, nil
}
func (r *projectRepo) PutAnalysis(ctx context.Context, a *metastore.Analysis) error { return nil }
func (r *projectRepo) GetProject(ctx context.Context, userID, projectID string) (*metastore.Project, error) {
	return r.project, nil
}
func (r *projectRepo) PutProject(ctx context.Context, p *metastore.Project) error { return nil }
func (r *projectRepo) UpdateProjectPreview(ctx context.Context, userID, projectID, previewPath string) error {
	return nil
}

type scriptedOracle struct {
	responses []string
	err       error
	prompts   []string
}

func (o *scriptedOracle) CaptionImage(ctx context.Context, image []byte, prompt string) (string, error) {
	return "", errors.New("not used")
}

func (o *scriptedOracle) Complete(ctx context.Context, prompt string) (string, error) {
	o.prompts = append(o.prompts, prompt)
	if o.err != nil {
		return "", o.err
	}
	if len(o.responses) == 0 {
		return "scene summary", nil
	}
	resp := o.responses[0]
	if len(o.responses) > 1 {
		o.responses = o.responses[1:]
	}
	return resp, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const sampleTimeline = `00:00:02: a dog runs across a field
00:00:08: the dog catches a ball
00:00:15: two people wave at the camera
00:00:26: sunset over the hills`

func newTestService(timelineText string, orc *scriptedOracle) *Service {
	repo := &projectRepo{}
	if timelineText != "" {
		repo.project = &metastore.Project{
			UserID:    "u1",
			ProjectID: "p1",
			Timeline:  timelineText,
		}
	}
	return NewService(repo, orc, discard())
}

func TestGenerate_BucketsByInterval(t *testing.T) {
	orc := &scriptedOracle{}
	svc := newTestService(sampleTimeline, orc)

	reel, err := svc.Generate(context.Background(), "u1", "p1", 12, "")
	require.NoError(t, err)

	// Last annotation is at 26s: windows are [0,12), [12,24), [24,26).
	require.Equal(t, 3, reel.TotalScenes)
	require.Equal(t, "00:00:00", reel.Highlights[0].StartTimestamp)
	require.Equal(t, "00:00:12", reel.Highlights[0].EndTimestamp)
	require.Equal(t, "00:00:24", reel.Highlights[2].StartTimestamp)
	require.Equal(t, "00:00:26", reel.Highlights[2].EndTimestamp)
	require.Equal(t, 1, reel.Highlights[0].SceneID)
	require.Equal(t, 3, reel.Highlights[2].SceneID)
	require.Equal(t, "scene summary", reel.Highlights[0].Description)
}

func TestGenerate_EmptySceneGetsPlaceholder(t *testing.T) {
	orc := &scriptedOracle{}
	svc := newTestService("00:00:01: start\n00:00:25: mid\n00:00:30: end", orc)

	reel, err := svc.Generate(context.Background(), "u1", "p1", 10, "")
	require.NoError(t, err)
	require.Equal(t, 3, reel.TotalScenes)

	// Window [10,20) holds no annotations, so no oracle call is made.
	require.Equal(t, fallbackSceneSummary, reel.Highlights[1].Description)
	require.Len(t, orc.prompts, 2)
}

func TestGenerate_SummaryFailureDegrades(t *testing.T) {
	orc := &scriptedOracle{err: errors.New("model down")}
	svc := newTestService(sampleTimeline, orc)

	reel, err := svc.Generate(context.Background(), "u1", "p1", 12, "")
	require.NoError(t, err)
	for _, scene := range reel.Highlights {
		require.Equal(t, fallbackSceneSummary, scene.Description)
	}
}

func TestGenerate_ProjectMissing(t *testing.T) {
	svc := newTestService("", &scriptedOracle{})

	_, err := svc.Generate(context.Background(), "u1", "nope", 12, "")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGenerate_NoParseableAnnotations(t *testing.T) {
	svc := newTestService("just some prose with no timecodes", &scriptedOracle{})

	_, err := svc.Generate(context.Background(), "u1", "p1", 12, "")
	require.ErrorIs(t, err, ErrNoDescriptions)
}

func TestGenerate_Prompted(t *testing.T) {
	orc := &scriptedOracle{responses: []string{"```json\n[" +
		`{"start_timestamp":"00:00:05","end_timestamp":"00:00:17","description":"the catch"},` +
		`{"start_timestamp":"00:00:20","end_timestamp":"00:00:26"}` +
		"]\n```"}}
	svc := newTestService(sampleTimeline, orc)

	reel, err := svc.Generate(context.Background(), "u1", "p1", 12, "moments with the dog")
	require.NoError(t, err)
	require.Equal(t, 2, reel.TotalScenes)
	require.Equal(t, 1, reel.Highlights[0].SceneID)
	require.Equal(t, "the catch", reel.Highlights[0].Description)
	require.Equal(t, "No description.", reel.Highlights[1].Description)

	require.Len(t, orc.prompts, 1)
	require.True(t, strings.Contains(orc.prompts[0], "moments with the dog"))
}

func TestGenerate_PromptedSurroundingProse(t *testing.T) {
	orc := &scriptedOracle{responses: []string{
		`Here are the highlights: [{"start_timestamp":"00:00:00","end_timestamp":"00:00:12","description":"intro"}] enjoy!`,
	}}
	svc := newTestService(sampleTimeline, orc)

	reel, err := svc.Generate(context.Background(), "u1", "p1", 12, "anything")
	require.NoError(t, err)
	require.Equal(t, 1, reel.TotalScenes)
	require.Equal(t, "intro", reel.Highlights[0].Description)
}

func TestGenerate_PromptedUnparseable(t *testing.T) {
	orc := &scriptedOracle{responses: []string{"sorry, I cannot help with that"}}
	svc := newTestService(sampleTimeline, orc)

	_, err := svc.Generate(context.Background(), "u1", "p1", 12, "anything")
	require.Error(t, err)
}

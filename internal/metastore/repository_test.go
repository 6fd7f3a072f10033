package metastore

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) (*DB, Repository) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	database, err := New(dbPath, nil)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	return database, NewRepository(database.Conn())
}

func TestAnalysis_PutGet(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()
	ctx := context.Background()

	a := &Analysis{
		UserID: "u1",
		ClipID: "beach.mp4",
		Status: AnalysisStatusCompleted,
		Frames: []FrameCaption{
			{Timecode: "00:00:03", Text: "waves rolling in"},
			{Timecode: "00:00:09", Text: "a surfer paddles out"},
		},
		Summary:     "a day at the beach",
		ProcessedAt: time.Now().UTC().Truncate(time.Second),
	}

	if err := repo.PutAnalysis(ctx, a); err != nil {
		t.Fatalf("PutAnalysis() error = %v", err)
	}

	got, err := repo.GetAnalysis(ctx, "u1", "beach.mp4")
	if err != nil {
		t.Fatalf("GetAnalysis() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetAnalysis() = nil, want record")
	}
	if got.ClipID != "beach_mp4" {
		t.Errorf("ClipID = %q, want sanitized beach_mp4", got.ClipID)
	}
	if got.Status != AnalysisStatusCompleted {
		t.Errorf("Status = %q", got.Status)
	}
	if len(got.Frames) != 2 || got.Frames[1].Text != "a surfer paddles out" {
		t.Errorf("Frames = %+v", got.Frames)
	}
}

func TestAnalysis_GetMissing(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	got, err := repo.GetAnalysis(context.Background(), "u1", "nope.mp4")
	if err != nil {
		t.Fatalf("GetAnalysis() error = %v", err)
	}
	if got != nil {
		t.Errorf("GetAnalysis() = %+v, want nil", got)
	}
}

func TestAnalysis_Upsert(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()
	ctx := context.Background()

	a := &Analysis{UserID: "u1", ClipID: "c.mp4", Status: AnalysisStatusPending, ProcessedAt: time.Now()}
	if err := repo.PutAnalysis(ctx, a); err != nil {
		t.Fatalf("PutAnalysis() error = %v", err)
	}
	a.Status = AnalysisStatusCompleted
	a.Summary = "done"
	if err := repo.PutAnalysis(ctx, a); err != nil {
		t.Fatalf("PutAnalysis() upsert error = %v", err)
	}

	got, _ := repo.GetAnalysis(ctx, "u1", "c.mp4")
	if got.Status != AnalysisStatusCompleted || got.Summary != "done" {
		t.Errorf("upsert result = %+v", got)
	}
}

func TestProject_PutGetAndPreview(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()
	ctx := context.Background()

	p := &Project{
		UserID:     "u1",
		ProjectID:  "trip",
		VideoIDs:   []string{"a.mp4", "b.mp4"},
		Timeline:   "00:00:02: a\n00:00:13: b",
		OutputPath: "projects/u1/trip/full.mp4",
		CreatedAt:  time.Now().UTC(),
	}

	if err := repo.PutProject(ctx, p); err != nil {
		t.Fatalf("PutProject() error = %v", err)
	}

	got, err := repo.GetProject(ctx, "u1", "trip")
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetProject() = nil, want record")
	}
	if len(got.VideoIDs) != 2 || got.VideoIDs[0] != "a.mp4" {
		t.Errorf("VideoIDs = %v", got.VideoIDs)
	}
	if got.PreviewPath != "" {
		t.Errorf("PreviewPath = %q, want empty before render", got.PreviewPath)
	}

	if err := repo.UpdateProjectPreview(ctx, "u1", "trip", "projects/u1/trip/preview.mp4"); err != nil {
		t.Fatalf("UpdateProjectPreview() error = %v", err)
	}
	got, _ = repo.GetProject(ctx, "u1", "trip")
	if got.PreviewPath != "projects/u1/trip/preview.mp4" {
		t.Errorf("PreviewPath = %q", got.PreviewPath)
	}
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"clip.mp4", "clip_mp4"},
		{"a#b$c", "a_b_c"},
		{"x[0]/y", "x_0__y"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := SanitizeKey(tt.in); got != tt.want {
			t.Errorf("SanitizeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

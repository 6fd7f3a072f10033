package metastore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Repository is the metadata surface consumed by the services. Getters
// return (nil, nil) when the record is absent.
type Repository interface {
	GetAnalysis(ctx context.Context, userID, clipID string) (*Analysis, error)
	PutAnalysis(ctx context.Context, a *Analysis) error

	GetProject(ctx context.Context, userID, projectID string) (*Project, error)
	PutProject(ctx context.Context, p *Project) error
	UpdateProjectPreview(ctx context.Context, userID, projectID, previewPath string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) GetAnalysis(ctx context.Context, userID, clipID string) (*Analysis, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, clip_id, status, frames, summary, processed_at
		FROM video_analysis WHERE user_id = ? AND clip_id = ?
	`, userID, SanitizeKey(clipID))

	var a Analysis
	var frames, processedAt string
	err := row.Scan(&a.UserID, &a.ClipID, &a.Status, &frames, &a.Summary, &processedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(frames), &a.Frames); err != nil {
		return nil, fmt.Errorf("decode frame captions: %w", err)
	}
	a.ProcessedAt, _ = time.Parse(time.RFC3339, processedAt)
	return &a, nil
}

func (r *SQLiteRepository) PutAnalysis(ctx context.Context, a *Analysis) error {
	frames, err := json.Marshal(a.Frames)
	if err != nil {
		return fmt.Errorf("encode frame captions: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO video_analysis (user_id, clip_id, status, frames, summary, processed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, clip_id) DO UPDATE SET
			status = excluded.status,
			frames = excluded.frames,
			summary = excluded.summary,
			processed_at = excluded.processed_at
	`, a.UserID, SanitizeKey(a.ClipID), a.Status, string(frames), a.Summary, a.ProcessedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetProject(ctx context.Context, userID, projectID string) (*Project, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, project_id, video_ids, timeline, output_path, preview_path, created_at
		FROM projects WHERE user_id = ? AND project_id = ?
	`, userID, projectID)

	var p Project
	var videoIDs, createdAt string
	var previewPath sql.NullString
	err := row.Scan(&p.UserID, &p.ProjectID, &videoIDs, &p.Timeline, &p.OutputPath, &previewPath, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(videoIDs), &p.VideoIDs); err != nil {
		return nil, fmt.Errorf("decode video ids: %w", err)
	}
	p.PreviewPath = previewPath.String
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &p, nil
}

func (r *SQLiteRepository) PutProject(ctx context.Context, p *Project) error {
	videoIDs, err := json.Marshal(p.VideoIDs)
	if err != nil {
		return fmt.Errorf("encode video ids: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO projects (user_id, project_id, video_ids, timeline, output_path, preview_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, project_id) DO UPDATE SET
			video_ids = excluded.video_ids,
			timeline = excluded.timeline,
			output_path = excluded.output_path,
			created_at = excluded.created_at
	`, p.UserID, p.ProjectID, string(videoIDs), p.Timeline, p.OutputPath, nullString(p.PreviewPath), p.CreatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) UpdateProjectPreview(ctx context.Context, userID, projectID, previewPath string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE projects SET preview_path = ? WHERE user_id = ? AND project_id = ?
	`, previewPath, userID, projectID)
	return err
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

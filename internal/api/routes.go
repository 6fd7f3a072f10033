package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/reelcut/reelcut-server/internal/cutlist"
	"github.com/reelcut/reelcut-server/internal/metastore"
	"github.com/reelcut/reelcut-server/internal/session"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.AuthToken, cfg.Logger))

		r.Post("/videos/process", processVideoHandler(cfg))
		r.Get("/videos", listVideosHandler(cfg))
		r.Get("/videos/{userID}/{clipID}/analysis", getAnalysisHandler(cfg))

		r.Post("/projects", createProjectHandler(cfg))
		r.Post("/projects/render", renderProjectHandler(cfg))
		r.Get("/projects/{userID}/{projectID}", getProjectHandler(cfg))
		r.Post("/projects/{userID}/{projectID}/export", exportProjectHandler(cfg))

		r.Post("/highlights", highlightsHandler(cfg))

		r.Post("/chat/ask", chatAskHandler(cfg))
		r.Get("/chat/sessions/{sessionID}", chatSessionHandler(cfg))
		r.Get("/chat/history/{sessionID}", chatHistoryHandler(cfg))
		r.Get("/chat/search/{sessionID}", chatSearchHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: "0.1.0",
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
		})
	}
}

func processVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ProcessVideoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.UserID == "" || req.VideoFilename == "" {
			WriteError(w, http.StatusBadRequest, "user_id and video_filename are required", "BAD_REQUEST")
			return
		}

		record, err := cfg.Analysis.ProcessClip(r.Context(), req.UserID, req.VideoFilename)
		if err != nil {
			WriteDomainError(w, err)
			return
		}

		WriteJSON(w, http.StatusOK, ProcessVideoResponse{
			Message: "Video processing completed.",
			VideoID: record.ClipID,
			UserID:  record.UserID,
			Status:  record.Status,
		})
	}
}

func getAnalysisHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		clipID := chi.URLParam(r, "clipID")

		record, err := cfg.Repository.GetAnalysis(r.Context(), userID, clipID)
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		if record == nil || record.Status != metastore.AnalysisStatusCompleted {
			WriteError(w, http.StatusNotFound, "video analysis not found or not completed", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, record)
	}
}

var videoExtensions = []string{".mp4", ".mov", ".avi", ".mkv"}

func listVideosHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prefix := "videos/"
		if user := r.URL.Query().Get("user"); user != "" {
			prefix = "videos/" + user + "/"
		}

		objects, err := cfg.Store.List(r.Context(), prefix)
		if err != nil {
			WriteDomainError(w, err)
			return
		}

		resp := VideosResponse{Videos: []VideoEntry{}}
		for _, obj := range objects {
			if !isVideoPath(obj.Path) {
				continue
			}
			resp.Videos = append(resp.Videos, objectToVideoEntry(obj))
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func isVideoPath(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range videoExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func createProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req NewProjectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.UserID == "" || req.ProjectID == "" {
			WriteError(w, http.StatusBadRequest, "user_id and project_id are required", "BAD_REQUEST")
			return
		}

		created, err := cfg.Projects.Create(r.Context(), req.UserID, req.ProjectID, req.VideoIDs)
		if err != nil {
			WriteDomainError(w, err)
			return
		}

		WriteJSON(w, http.StatusOK, NewProjectResponse{
			ProjectID:      created.ProjectID,
			UserID:         created.UserID,
			Status:         "completed",
			Message:        "Project created and videos concatenated successfully.",
			OutputFilename: created.OutputPath,
		})
	}
}

func renderProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RenderVideoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.UserID == "" || req.ProjectID == "" {
			WriteError(w, http.StatusBadRequest, "user_id and project_id are required", "BAD_REQUEST")
			return
		}

		// nil means derive from cut markers; an empty list is passed
		// through and rejected as an empty keep-list.
		var segments []cutlist.Segment
		if req.SegmentsToKeep != nil {
			segments = make([]cutlist.Segment, len(req.SegmentsToKeep))
			for i, pair := range req.SegmentsToKeep {
				segments[i] = cutlist.Segment{Start: pair[0], End: pair[1]}
			}
		}

		rendered, err := cfg.Projects.Render(r.Context(), req.UserID, req.ProjectID, segments, req.AudioFileName)
		if err != nil {
			WriteDomainError(w, err)
			return
		}

		WriteJSON(w, http.StatusOK, RenderVideoResponse{
			ProjectID:      rendered.ProjectID,
			UserID:         rendered.UserID,
			Status:         "completed",
			Message:        "Video rendered successfully.",
			OutputFilename: rendered.PreviewPath,
		})
	}
}

func getProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		projectID := chi.URLParam(r, "projectID")

		summary, err := cfg.Projects.Summarize(r.Context(), userID, projectID)
		if err != nil {
			WriteDomainError(w, err)
			return
		}

		WriteJSON(w, http.StatusOK, ProjectSummaryResponse{
			Project:        summary.Project,
			FullPresent:    summary.FullPresent,
			PreviewPresent: summary.PreviewPresent,
		})
	}
}

func exportProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		projectID := chi.URLParam(r, "projectID")

		req := ExportRequest{FrameRate: 30}
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
				return
			}
		}

		edl, err := cfg.Projects.ExportEDL(r.Context(), userID, projectID, req.FrameRate)
		if err != nil {
			WriteDomainError(w, err)
			return
		}

		WriteJSON(w, http.StatusOK, ExportResponse{
			Format:  "edl",
			Title:   projectID,
			Content: edl,
		})
	}
}

func highlightsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req HighlightsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.UserID == "" || req.ProjectID == "" {
			WriteError(w, http.StatusBadRequest, "user_id and project_id are required", "BAD_REQUEST")
			return
		}

		reel, err := cfg.Highlights.Generate(r.Context(), req.UserID, req.ProjectID, req.SceneInterval, req.UserPrompt)
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, reel)
	}
}

func chatAskHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChatAskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Question == "" || req.UserID == "" || req.ProjectID == "" {
			WriteError(w, http.StatusBadRequest, "question, user_id and project_id are required", "BAD_REQUEST")
			return
		}

		sessionID, err := cfg.Sessions.Open(r.Context(), req.UserID, req.ProjectID, req.SessionID)
		if err != nil {
			WriteDomainError(w, err)
			return
		}

		answer, err := cfg.Sessions.Ask(r.Context(), sessionID, req.Question)
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, answer)
	}
}

func chatSessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := cfg.Sessions.SessionInfo(chi.URLParam(r, "sessionID"))
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, info)
	}
}

func chatHistoryHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := session.DefaultHistoryLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				WriteError(w, http.StatusBadRequest, "limit must be a positive integer", "BAD_REQUEST")
				return
			}
			limit = parsed
		}

		history, err := cfg.Sessions.History(chi.URLParam(r, "sessionID"), limit)
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, history)
	}
}

func chatSearchHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keyword := r.URL.Query().Get("keyword")
		if keyword == "" {
			WriteError(w, http.StatusBadRequest, "keyword is required", "BAD_REQUEST")
			return
		}

		hits, err := cfg.Sessions.Search(chi.URLParam(r, "sessionID"), keyword)
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, hits)
	}
}

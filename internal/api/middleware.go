package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reelcut/reelcut-server/internal/cutlist"
	"github.com/reelcut/reelcut-server/internal/highlights"
	"github.com/reelcut/reelcut-server/internal/logging"
	"github.com/reelcut/reelcut-server/internal/oracle"
	"github.com/reelcut/reelcut-server/internal/project"
	"github.com/reelcut/reelcut-server/internal/render"
	"github.com/reelcut/reelcut-server/internal/storage"
	"github.com/reelcut/reelcut-server/internal/timecode"
	"github.com/reelcut/reelcut-server/internal/timeline"
)

type contextKey string

const RequestIDKey contextKey = "request_id"

// AuthMiddleware enforces a static bearer token. An empty configured token
// disables auth; the server logs that at startup.
func AuthMiddleware(token string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				WriteError(w, http.StatusUnauthorized, "missing authorization header", "UNAUTHORIZED")
				return
			}
			if !strings.HasPrefix(auth, "Bearer ") {
				WriteError(w, http.StatusUnauthorized, "invalid authorization format", "UNAUTHORIZED")
				return
			}

			provided := strings.TrimPrefix(auth, "Bearer ")
			if provided != token {
				logger.Warn("invalid auth token", "provided", logging.SanitizeToken(provided))
				WriteError(w, http.StatusUnauthorized, "invalid token", "UNAUTHORIZED")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func LoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			requestID, _ := r.Context().Value(RequestIDKey).(string)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", requestID,
			)
		})
	}
}

func RecoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					requestID, _ := r.Context().Value(RequestIDKey).(string)
					logger.Error("panic recovered", "error", err, "request_id", requestID)
					WriteError(w, http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := uuid.NewString()[:8]
			ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
			w.Header().Set("X-Request-ID", requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func WriteError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message, Code: code})
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// WriteDomainError translates domain failures into HTTP responses.
func WriteDomainError(w http.ResponseWriter, err error) {
	var (
		notReady  *timeline.NotReadyError
		missing   *timeline.MissingSourceError
		badFormat *timecode.FormatError
		renderErr *render.Error
		oracleErr *oracle.OracleError
	)

	switch {
	case errors.As(err, &notReady):
		WriteError(w, http.StatusConflict, notReady.Error(), "NOT_READY")
	case errors.As(err, &missing):
		WriteError(w, http.StatusNotFound, missing.Error(), "NOT_FOUND")
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, highlights.ErrNoDescriptions):
		WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, cutlist.ErrEmptyKeepList), errors.Is(err, project.ErrNoClips):
		WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
	case errors.As(err, &badFormat):
		WriteError(w, http.StatusUnprocessableEntity, badFormat.Error(), "BAD_FORMAT")
	case errors.As(err, &renderErr):
		WriteError(w, http.StatusBadGateway, renderErr.Error(), "RENDER_FAILED")
	case errors.As(err, &oracleErr):
		WriteError(w, http.StatusBadGateway, oracleErr.Error(), "ORACLE_FAILED")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
	}
}

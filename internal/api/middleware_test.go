package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/reelcut/reelcut-server/internal/cutlist"
	"github.com/reelcut/reelcut-server/internal/render"
	"github.com/reelcut/reelcut-server/internal/storage"
	"github.com/reelcut/reelcut-server/internal/timecode"
	"github.com/reelcut/reelcut-server/internal/timeline"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware(t *testing.T) {
	handler := AuthMiddleware("secret", testLogger())(okHandler())

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic secret", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer secret", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/videos", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != tc.want {
				t.Errorf("status code = %d, want %d", rr.Code, tc.want)
			}
		})
	}
}

func TestAuthMiddleware_DisabledWithoutToken(t *testing.T) {
	handler := AuthMiddleware("", testLogger())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/videos", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("status code = %d, want 200 with auth disabled", rr.Code)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var captured string
	handler := RequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = r.Context().Value(RequestIDKey).(string)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if captured == "" {
		t.Error("request id missing from context")
	}
	if rr.Header().Get("X-Request-ID") != captured {
		t.Errorf("X-Request-ID header = %q, want %q", rr.Header().Get("X-Request-ID"), captured)
	}
	if len(captured) != 8 {
		t.Errorf("request id length = %d, want 8", len(captured))
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status code = %d, want 500", rr.Code)
	}
}

func TestWriteDomainError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not ready", &timeline.NotReadyError{ClipID: "a"}, http.StatusConflict},
		{"missing source", &timeline.MissingSourceError{ClipID: "a"}, http.StatusNotFound},
		{"blob not found", storage.ErrNotFound, http.StatusNotFound},
		{"wrapped not found", errors.Join(errors.New("load"), storage.ErrNotFound), http.StatusNotFound},
		{"empty keep list", cutlist.ErrEmptyKeepList, http.StatusBadRequest},
		{"bad timecode", &timecode.FormatError{Input: "x", Reason: "bad"}, http.StatusUnprocessableEntity},
		{"render failure", &render.Error{Op: "concat", Cause: errors.New("exit 1")}, http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			WriteDomainError(rr, tc.err)
			if rr.Code != tc.want {
				t.Errorf("status code = %d, want %d", rr.Code, tc.want)
			}
		})
	}
}

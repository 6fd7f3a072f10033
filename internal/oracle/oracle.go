// Package oracle is the text/vision reasoning collaborator: a synchronous
// request/response surface the core calls for captions and summaries. The
// model itself is external; only the transport lives here.
package oracle

import (
	"context"
	"log/slog"
)

// Oracle is the reasoning surface consumed by analysis, highlights, and
// chat. Implementations must be safe for concurrent use.
type Oracle interface {
	// CaptionImage describes a single image under the given prompt.
	CaptionImage(ctx context.Context, image []byte, prompt string) (string, error)

	// Complete answers a free-form text prompt.
	Complete(ctx context.Context, prompt string) (string, error)
}

// Stub returns canned responses; used in tests and offline development.
type Stub struct {
	logger *slog.Logger

	// CaptionResponse and CompleteResponse override the defaults when set.
	CaptionResponse  string
	CompleteResponse string
}

func NewStub(logger *slog.Logger) *Stub {
	return &Stub{logger: logger}
}

func (s *Stub) CaptionImage(ctx context.Context, image []byte, prompt string) (string, error) {
	if s.logger != nil {
		s.logger.Info("oracle stub: caption requested", "image_bytes", len(image))
	}
	if s.CaptionResponse != "" {
		return s.CaptionResponse, nil
	}
	return "a frame from the video", nil
}

func (s *Stub) Complete(ctx context.Context, prompt string) (string, error) {
	if s.logger != nil {
		s.logger.Info("oracle stub: completion requested", "prompt_len", len(prompt))
	}
	if s.CompleteResponse != "" {
		return s.CompleteResponse, nil
	}
	return "no summary available", nil
}

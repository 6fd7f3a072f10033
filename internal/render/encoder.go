// Package render drives segment-accurate reassembly of kept time ranges
// through an external encoder, with an optional replacement audio track.
package render

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reelcut/reelcut-server/internal/cutlist"
)

// ProbeResult holds the media attributes the core needs.
type ProbeResult struct {
	Duration   float64
	Width      int
	Height     int
	Codec      string
	AudioCodec string
}

// Encoder is the external codec/muxing engine contract.
type Encoder interface {
	// Probe returns media attributes; Duration comes from the video stream,
	// falling back to the container format.
	Probe(ctx context.Context, path string) (*ProbeResult, error)

	// StreamCopy copies the whole input to output without re-encoding.
	StreamCopy(ctx context.Context, input, output string) error

	// Concat losslessly concatenates the inputs in order (stream copy).
	Concat(ctx context.Context, inputs []string, output string) error

	// RenderSegments extracts and concatenates the given segments of input
	// in order, re-encoding. With a non-empty audioPath only the video
	// streams are kept and muxed against the replacement audio, truncated
	// to the shorter stream; otherwise both streams are cut and muxed.
	RenderSegments(ctx context.Context, input string, segments []cutlist.Segment, audioPath, output string) error

	// ExtractFrame writes a single downscaled frame sampled at the offset.
	ExtractFrame(ctx context.Context, input string, at float64, output string) error
}

// Error is a fatal encoder failure with the encoder's diagnostic text.
type Error struct {
	Op         string
	Cause      error
	StderrTail string
}

func (e *Error) Error() string {
	if e.StderrTail == "" {
		return fmt.Sprintf("render %s failed: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("render %s failed: %v: %s", e.Op, e.Cause, e.StderrTail)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Pipeline applies the render rules on top of an Encoder.
type Pipeline struct {
	enc    Encoder
	logger *slog.Logger
}

func NewPipeline(enc Encoder, logger *slog.Logger) *Pipeline {
	return &Pipeline{enc: enc, logger: logger}
}

// Render reassembles the kept segments of input into output. A keep-list
// that is exactly the full span with no replacement audio takes the
// stream-copy fast path; everything else re-encodes, since segment
// boundaries require frame-accurate cutting.
func (p *Pipeline) Render(ctx context.Context, input string, segments []cutlist.Segment, totalDuration float64, audioPath, output string) error {
	if len(segments) == 0 {
		return cutlist.ErrEmptyKeepList
	}

	if audioPath == "" && cutlist.IsFullSpan(segments, totalDuration) {
		if p.logger != nil {
			p.logger.Info("full-span keep-list, stream-copying input", "input", input)
		}
		return p.enc.StreamCopy(ctx, input, output)
	}

	if p.logger != nil {
		p.logger.Info("re-encoding kept segments",
			"segments", len(segments),
			"replacement_audio", audioPath != "",
		)
	}
	return p.enc.RenderSegments(ctx, input, segments, audioPath, output)
}

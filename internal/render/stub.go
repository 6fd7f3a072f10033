package render

import (
	"context"
	"log/slog"
	"os"

	"github.com/reelcut/reelcut-server/internal/cutlist"
)

// StubEncoder logs requested operations and writes placeholder outputs.
// Useful when ffmpeg is unavailable (development, CI).
type StubEncoder struct {
	logger *slog.Logger

	// StubDuration is returned from Probe.
	StubDuration float64
}

func NewStubEncoder(logger *slog.Logger) *StubEncoder {
	return &StubEncoder{logger: logger, StubDuration: 60}
}

func (s *StubEncoder) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	s.logger.Info("encoder stub: probe requested", "path", path)
	return &ProbeResult{Duration: s.StubDuration}, nil
}

func (s *StubEncoder) StreamCopy(ctx context.Context, input, output string) error {
	s.logger.Info("encoder stub: stream copy requested", "input", input, "output", output)
	return copyFile(input, output)
}

func (s *StubEncoder) Concat(ctx context.Context, inputs []string, output string) error {
	s.logger.Info("encoder stub: concat requested", "inputs", len(inputs), "output", output)
	if len(inputs) == 0 {
		return os.WriteFile(output, nil, 0644)
	}
	return copyFile(inputs[0], output)
}

func (s *StubEncoder) RenderSegments(ctx context.Context, input string, segments []cutlist.Segment, audioPath, output string) error {
	s.logger.Info("encoder stub: segment render requested",
		"input", input, "segments", len(segments), "audio", audioPath, "output", output)
	return copyFile(input, output)
}

func (s *StubEncoder) ExtractFrame(ctx context.Context, input string, at float64, output string) error {
	s.logger.Info("encoder stub: frame extraction requested", "input", input, "at", at)
	return os.WriteFile(output, []byte("stub frame"), 0644)
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}

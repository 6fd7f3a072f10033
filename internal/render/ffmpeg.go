package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/reelcut/reelcut-server/internal/cutlist"
)

const maxStderrBytes = 8 * 1024 // tail of stderr kept for diagnostics

// FFmpegEncoder shells out to ffmpeg/ffprobe.
type FFmpegEncoder struct {
	ffmpeg  string
	ffprobe string
	logger  *slog.Logger
}

// NewFFmpegEncoder builds an encoder around the given binaries; empty paths
// fall back to $PATH lookup.
func NewFFmpegEncoder(ffmpegPath, ffprobePath string, logger *slog.Logger) *FFmpegEncoder {
	if strings.TrimSpace(ffmpegPath) == "" {
		ffmpegPath = "ffmpeg"
	}
	if strings.TrimSpace(ffprobePath) == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpegEncoder{ffmpeg: ffmpegPath, ffprobe: ffprobePath, logger: logger}
}

type probePayload struct {
	Streams []struct {
		CodecName string `json:"codec_name"`
		CodecType string `json:"codec_type"`
		Duration  string `json:"duration"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func (f *FFmpegEncoder) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	cmd := exec.CommandContext(ctx, f.ffprobe,
		"-v", "error", "-hide_banner",
		"-show_format", "-show_streams",
		"-of", "json", "--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, &Error{Op: "probe", Cause: err, StderrTail: tail(output)}
	}

	var payload probePayload
	if err := json.Unmarshal(output, &payload); err != nil {
		return nil, fmt.Errorf("ffprobe parse: %w", err)
	}

	result := &ProbeResult{}
	for _, s := range payload.Streams {
		switch strings.ToLower(s.CodecType) {
		case "video":
			if result.Codec == "" {
				result.Codec = s.CodecName
				result.Width = s.Width
				result.Height = s.Height
				result.Duration = parseSeconds(s.Duration)
			}
		case "audio":
			if result.AudioCodec == "" {
				result.AudioCodec = s.CodecName
			}
		}
	}
	if result.Duration == 0 {
		result.Duration = parseSeconds(payload.Format.Duration)
	}
	return result, nil
}

func (f *FFmpegEncoder) StreamCopy(ctx context.Context, input, output string) error {
	return f.run(ctx, "copy", "-y", "-i", input, "-c", "copy", output)
}

func (f *FFmpegEncoder) Concat(ctx context.Context, inputs []string, output string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("concat: no inputs")
	}

	// The concat demuxer reads input paths from a list file.
	listPath := filepath.Join(filepath.Dir(output), "concat_list.txt")
	var list strings.Builder
	for _, in := range inputs {
		fmt.Fprintf(&list, "file '%s'\n", strings.ReplaceAll(in, "'", `'\''`))
	}
	if err := os.WriteFile(listPath, []byte(list.String()), 0644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	defer os.Remove(listPath)

	return f.run(ctx, "concat",
		"-y", "-f", "concat", "-safe", "0", "-i", listPath,
		"-c", "copy", output)
}

func (f *FFmpegEncoder) RenderSegments(ctx context.Context, input string, segments []cutlist.Segment, audioPath, output string) error {
	if audioPath != "" {
		return f.renderWithReplacementAudio(ctx, input, segments, audioPath, output)
	}
	return f.renderKeepingOriginalAudio(ctx, input, segments, output)
}

// renderWithReplacementAudio concatenates the video streams of the kept
// segments and muxes them against the replacement track, truncating to the
// shorter of the two.
func (f *FFmpegEncoder) renderWithReplacementAudio(ctx context.Context, input string, segments []cutlist.Segment, audioPath, output string) error {
	var filter strings.Builder
	for i, seg := range segments {
		fmt.Fprintf(&filter, "[0:v]trim=start=%s:end=%s,setpts=PTS-STARTPTS[v%d];",
			formatSeconds(seg.Start), formatSeconds(seg.End), i)
	}
	for i := range segments {
		fmt.Fprintf(&filter, "[v%d]", i)
	}
	fmt.Fprintf(&filter, "concat=n=%d:v=1:a=0[outv]", len(segments))

	return f.run(ctx, "segments+audio",
		"-y", "-i", input, "-i", audioPath,
		"-filter_complex", filter.String(),
		"-map", "[outv]", "-map", "1:a:0",
		"-c:v", "libx264", "-c:a", "aac",
		"-pix_fmt", "yuv420p",
		"-shortest",
		output)
}

// renderKeepingOriginalAudio cuts both streams per segment and muxes the
// concatenations directly.
func (f *FFmpegEncoder) renderKeepingOriginalAudio(ctx context.Context, input string, segments []cutlist.Segment, output string) error {
	var filter strings.Builder
	for i, seg := range segments {
		start, end := formatSeconds(seg.Start), formatSeconds(seg.End)
		fmt.Fprintf(&filter, "[0:v]trim=start=%s:end=%s,setpts=PTS-STARTPTS[v%d];", start, end, i)
		fmt.Fprintf(&filter, "[0:a]atrim=start=%s:end=%s,asetpts=PTS-STARTPTS[a%d];", start, end, i)
	}
	for i := range segments {
		fmt.Fprintf(&filter, "[v%d][a%d]", i, i)
	}
	fmt.Fprintf(&filter, "concat=n=%d:v=1:a=1[outv][outa]", len(segments))

	return f.run(ctx, "segments",
		"-y", "-i", input,
		"-filter_complex", filter.String(),
		"-map", "[outv]", "-map", "[outa]",
		"-c:v", "libx264", "-c:a", "aac",
		"-pix_fmt", "yuv420p",
		output)
}

func (f *FFmpegEncoder) ExtractFrame(ctx context.Context, input string, at float64, output string) error {
	return f.run(ctx, "frame",
		"-y", "-ss", formatSeconds(at), "-i", input,
		"-vframes", "1", "-vf", "scale=-1:360",
		output)
}

func (f *FFmpegEncoder) run(ctx context.Context, op string, args ...string) error {
	cmd := exec.CommandContext(ctx, f.ffmpeg, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if f.logger != nil {
		f.logger.Debug("invoking ffmpeg", "op", op, "args", strings.Join(args, " "))
	}

	if err := cmd.Run(); err != nil {
		return &Error{Op: op, Cause: err, StderrTail: tail(stderr.Bytes())}
	}
	return nil
}

func tail(b []byte) string {
	if len(b) > maxStderrBytes {
		b = b[len(b)-maxStderrBytes:]
	}
	return strings.TrimSpace(string(b))
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}

func parseSeconds(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

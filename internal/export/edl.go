// Package export writes CMX 3600 EDL files describing a project's keep
// segments, so a resolved cut can move into an NLE instead of being
// rendered here.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/reelcut/reelcut-server/internal/cutlist"
)

// Result describes a finished export for the API surface.
type Result struct {
	Status     string `json:"status"`
	Format     string `json:"format"`
	OutputPath string `json:"output_path"`
	EventCount int    `json:"event_count"`
}

// GenerateEDL renders the keep segments of a single source as EDL events.
// Each segment cuts from the full media; record times run back to back so
// the EDL plays as the resolved cut.
func GenerateEDL(title, mediaPath string, segments []cutlist.Segment, frameRate float64) string {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = 30
	}

	isDropFrame := math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01

	lines := []string{fmt.Sprintf("TITLE: %s", title)}
	if isDropFrame {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	recordOffset := 0.0
	for i, seg := range segments {
		duration := seg.End - seg.Start
		srcIn := secondsToFrameTimecode(seg.Start, fps)
		srcOut := secondsToFrameTimecode(seg.End, fps)
		recIn := secondsToFrameTimecode(recordOffset, fps)
		recOut := secondsToFrameTimecode(recordOffset+duration, fps)

		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", i+1, "AX", "V", srcIn, srcOut, recIn, recOut),
			fmt.Sprintf("* FROM CLIP NAME:  %s", title),
			fmt.Sprintf("* MEDIA PATH:  %s", mediaPath),
		)

		recordOffset += duration
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// secondsToFrameTimecode converts a time in seconds to HH:MM:SS:FF at the
// given frame rate.
func secondsToFrameTimecode(seconds float64, fps int) string {
	totalFrames := int(math.Round(seconds * float64(fps)))
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	secs := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, secs, frames)
}

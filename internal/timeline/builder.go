package timeline

import (
	"fmt"
	"sort"
)

// Frame is one analyzed frame caption within a single clip, timed relative
// to that clip's own start.
type Frame struct {
	At   float64
	Text string
}

// Clip is the builder's view of one analyzed source clip. Duration must be
// probed from the staged media file; analysis-recorded durations may be
// stale or absent.
type Clip struct {
	ID       string
	Frames   []Frame
	Duration float64
}

// NotReadyError reports a clip whose analysis is absent or incomplete.
// The client should retry after analysis completes.
type NotReadyError struct {
	ClipID string
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("analysis for clip %q not found or not completed", e.ClipID)
}

// MissingSourceError reports a clip whose media artifact is absent from
// storage.
type MissingSourceError struct {
	ClipID string
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("source media for clip %q not found in storage", e.ClipID)
}

// Build merges per-clip frame captions into one globally time-shifted
// timeline. Clips are processed in the given order; each clip's frames are
// stable-sorted by timestamp and shifted by the running offset, and the
// offset then advances by the clip's probed duration. The result is
// monotonic non-decreasing by construction.
func Build(clips []Clip) []Entry {
	var entries []Entry
	offset := 0.0

	for _, clip := range clips {
		frames := make([]Frame, len(clip.Frames))
		copy(frames, clip.Frames)
		sort.SliceStable(frames, func(i, j int) bool {
			return frames[i].At < frames[j].At
		})

		for _, f := range frames {
			entries = append(entries, NewEntry(offset+f.At, f.Text))
		}
		offset += clip.Duration
	}

	return entries
}

// TotalDuration returns the summed probed duration of the clips, which is
// the duration of their lossless concatenation.
func TotalDuration(clips []Clip) float64 {
	total := 0.0
	for _, c := range clips {
		total += c.Duration
	}
	return total
}

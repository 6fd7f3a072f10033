// Package cutlist resolves the ordered list of keep-segments for a render,
// either from an explicit caller-supplied list or derived from a project
// timeline's cut markers.
package cutlist

import (
	"errors"
	"log/slog"
	"sort"

	"github.com/reelcut/reelcut-server/internal/timeline"
)

// Segment is a half-open time range of the full media to keep, in seconds.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// ErrEmptyKeepList reports a keep-list that resolved to nothing. Rendering
// nothing would silently produce a blank artifact, so this is fatal.
var ErrEmptyKeepList = errors.New("keep-list resolves to no segments")

// excisionSeconds is removed at every cut point. Fixed, not configurable.
const excisionSeconds = 1.0

// Resolve produces the final keep-list for a render request.
//
// When explicit is non-nil it is used verbatim — explicit mode performs no
// validation beyond rejecting the empty list. Otherwise the keep-list is
// derived from the timeline's cut markers against the probed total duration.
func Resolve(explicit []Segment, entries []timeline.Entry, totalDuration float64, logger *slog.Logger) ([]Segment, error) {
	if explicit != nil {
		if len(explicit) == 0 {
			return nil, ErrEmptyKeepList
		}
		return explicit, nil
	}

	segments := Derive(timeline.CutTimes(entries), totalDuration, logger)
	if len(segments) == 0 {
		return nil, ErrEmptyKeepList
	}
	return segments, nil
}

// Derive walks deduplicated, ascending cut points with a cursor starting at
// zero. Each cut point t emits the pending segment (cursor, t) when
// non-empty and excises one second by advancing the cursor to t+1. Whatever
// remains before totalDuration becomes the final segment.
func Derive(cutPoints []float64, totalDuration float64, logger *slog.Logger) []Segment {
	points := dedupeSorted(cutPoints)

	var segments []Segment
	cursor := 0.0
	for _, t := range points {
		if t > cursor {
			segments = append(segments, Segment{Start: cursor, End: t})
		}
		cursor = t + excisionSeconds
	}
	if cursor < totalDuration {
		segments = append(segments, Segment{Start: cursor, End: totalDuration})
	}

	if logger != nil {
		logger.Info("derived keep-list from cut markers",
			"cut_points", len(points),
			"segments", len(segments),
			"total_duration", totalDuration,
		)
	}
	return segments
}

// IsFullSpan reports whether the keep-list is exactly one segment covering
// the whole media, which allows the stream-copy fast path.
func IsFullSpan(segments []Segment, totalDuration float64) bool {
	return len(segments) == 1 && segments[0].Start == 0 && segments[0].End == totalDuration
}

func dedupeSorted(points []float64) []float64 {
	if len(points) == 0 {
		return nil
	}
	sorted := make([]float64, len(points))
	copy(sorted, points)
	sort.Float64s(sorted)

	out := sorted[:1]
	for _, p := range sorted[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return out
}

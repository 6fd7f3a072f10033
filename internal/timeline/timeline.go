// Package timeline models the merged, offset-corrected sequence of
// timestamped annotations for a project. Entries are typed: ordinary
// annotations and cut markers are distinct variants, so cut resolution
// matches on the entry kind rather than scraping annotation text. The
// persisted form stays line-compatible with the legacy convention of
// annotation lines whose text begins with "cut".
package timeline

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/reelcut/reelcut-server/internal/timecode"
)

// Kind discriminates timeline entry variants.
type Kind int

const (
	KindAnnotation Kind = iota
	KindCut
)

// Entry is one timestamped timeline item. For annotations Text is the
// caption; for cut markers Text is the marker's reason, possibly empty.
type Entry struct {
	At   float64
	Kind Kind
	Text string
}

const cutToken = "cut"

// NewEntry classifies raw annotation text into an annotation or cut marker.
// Text beginning with "cut" (case-insensitive) is a marker; everything after
// the token and an optional colon becomes the reason.
func NewEntry(at float64, text string) Entry {
	trimmed := strings.TrimSpace(text)
	if isCutText(trimmed) {
		return Entry{At: at, Kind: KindCut, Text: cutReason(trimmed)}
	}
	return Entry{At: at, Kind: KindAnnotation, Text: trimmed}
}

// Line renders the entry in the persisted "HH:MM:SS: text" form.
func (e Entry) Line() string {
	switch e.Kind {
	case KindCut:
		if e.Text == "" {
			return fmt.Sprintf("%s: %s", timecode.Encode(e.At), cutToken)
		}
		return fmt.Sprintf("%s: %s: %s", timecode.Encode(e.At), cutToken, e.Text)
	default:
		return fmt.Sprintf("%s: %s", timecode.Encode(e.At), e.Text)
	}
}

// Marshal serializes entries as newline-delimited timeline text.
func Marshal(entries []Entry) string {
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.Line()
	}
	return strings.Join(lines, "\n")
}

// Parse decodes persisted timeline text. Lines that cannot be parsed are
// skipped with a warning; parsing is advisory, never fatal.
func Parse(text string, logger *slog.Logger) []Entry {
	var entries []Entry
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry, err := ParseLine(line)
		if err != nil {
			if logger != nil {
				logger.Warn("skipping unparseable timeline line", "line", line, "error", err)
			}
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// ParseLine decodes a single timeline line.
//
// Two shapes are accepted: the canonical "HH:MM:SS: text" and the legacy
// marker form "cut: HH:MM:SS: reason" with no leading timestamp. A marker
// line carrying its own embedded timecode directly after the cut token uses
// that embedded time; otherwise the leading timestamp is the marker time.
func ParseLine(line string) (Entry, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Entry{}, &timecode.FormatError{Input: line, Reason: "empty line"}
	}

	if isCutText(trimmed) {
		// Legacy form: the whole line starts with the cut token and the
		// marker time is embedded where the annotation text would be.
		rest := cutReason(trimmed)
		at, reason, err := splitLeadingTimecode(rest)
		if err != nil {
			return Entry{}, fmt.Errorf("cut marker without a parseable time: %w", err)
		}
		return Entry{At: at, Kind: KindCut, Text: reason}, nil
	}

	at, text, err := splitLeadingTimecode(trimmed)
	if err != nil {
		return Entry{}, err
	}

	if isCutText(text) {
		reason := cutReason(text)
		// An embedded timecode after the token overrides the leading one.
		if embeddedAt, embeddedReason, err := splitLeadingTimecode(reason); err == nil && reason != "" {
			return Entry{At: embeddedAt, Kind: KindCut, Text: embeddedReason}, nil
		}
		return Entry{At: at, Kind: KindCut, Text: reason}, nil
	}

	return Entry{At: at, Kind: KindAnnotation, Text: text}, nil
}

// CutTimes returns the times of all cut markers, in entry order.
func CutTimes(entries []Entry) []float64 {
	var times []float64
	for _, e := range entries {
		if e.Kind == KindCut {
			times = append(times, e.At)
		}
	}
	return times
}

// splitLeadingTimecode splits "HH:MM:SS: text" into the decoded leading
// timecode and the remaining text. A line that is nothing but a timecode
// yields empty text.
func splitLeadingTimecode(s string) (float64, string, error) {
	head, rest, found := strings.Cut(s, ": ")
	if !found {
		at, err := timecode.Decode(strings.TrimSuffix(s, ":"))
		return at, "", err
	}
	at, err := timecode.Decode(head)
	if err != nil {
		return 0, "", err
	}
	return at, strings.TrimSpace(rest), nil
}

func isCutText(s string) bool {
	if len(s) < len(cutToken) {
		return false
	}
	if !strings.EqualFold(s[:len(cutToken)], cutToken) {
		return false
	}
	// "cutaway shot of the crowd" is a caption, not a marker.
	rest := s[len(cutToken):]
	return rest == "" || rest[0] == ':' || rest[0] == ' '
}

func cutReason(s string) string {
	rest := strings.TrimSpace(s[len(cutToken):])
	rest = strings.TrimPrefix(rest, ":")
	return strings.TrimSpace(rest)
}

// Package timecode converts between the canonical HH:MM:SS text form used
// throughout timelines and a real-valued seconds offset.
package timecode

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatError reports a timecode string that could not be decoded.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid timecode %q: %s", e.Input, e.Reason)
}

// Encode renders a non-negative seconds offset as HH:MM:SS. The fractional
// part is truncated, not rounded. Hours are not wrapped at 24; the hours
// field simply grows past two digits for very long media.
func Encode(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int64(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
}

// Decode parses a timecode with 1, 2, or 3 colon-separated integer fields,
// interpreted as SS, MM:SS, or HH:MM:SS respectively.
func Decode(text string) (float64, error) {
	fields := strings.Split(text, ":")
	if len(fields) > 3 {
		return 0, &FormatError{Input: text, Reason: "expected HH:MM:SS, MM:SS, or SS"}
	}

	values := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return 0, &FormatError{Input: text, Reason: fmt.Sprintf("field %q is not an integer", f)}
		}
		values[i] = n
	}

	switch len(values) {
	case 3:
		return float64(values[0]*3600 + values[1]*60 + values[2]), nil
	case 2:
		return float64(values[0]*60 + values[1]), nil
	default:
		return float64(values[0]), nil
	}
}

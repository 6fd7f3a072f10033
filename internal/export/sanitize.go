package export

import (
	"fmt"
	"strings"
	"unicode"
)

// SanitizeName strips control characters, replaces path-hostile runes with
// underscores, and truncates to maxLen runes. Used for EDL titles and
// download filenames built from user-supplied project names.
func SanitizeName(s string, maxLen int) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsControl(r) {
			continue
		}
		if isAllowedNameRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}

	cleaned := strings.TrimSpace(b.String())
	if maxLen > 0 {
		runes := []rune(cleaned)
		if len(runes) > maxLen {
			cleaned = string(runes[:maxLen])
		}
	}
	return cleaned
}

func isAllowedNameRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case ' ', '-', '_', '.', ',', '(', ')':
		return true
	default:
		return false
	}
}

// ValidateFrameRate rejects rates an EDL cannot express.
func ValidateFrameRate(frameRate float64) error {
	if frameRate <= 0 || frameRate > 240 {
		return fmt.Errorf("frame_rate must be between 0 and 240, got %v", frameRate)
	}
	return nil
}

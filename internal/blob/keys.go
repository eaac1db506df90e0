package blob

import (
	"path"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxSegmentLen = 100

// sanitizeSegment removes diacritics and replaces anything outside
// [A-Za-z0-9._-] with "_". Leading dots are dropped.
func sanitizeSegment(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, _ = transform.String(t, s)

	var b strings.Builder
	for _, r := range s {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	out := strings.TrimLeft(b.String(), ".")
	if len(out) > maxSegmentLen {
		out = out[len(out)-maxSegmentLen:]
	}
	return out
}

// SanitizeFilename reduces an uploaded filename to a safe object name.
// Directory parts, from either path separator, are dropped.
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		name = ""
	}
	if out := sanitizeSegment(name); out != "" {
		return out
	}
	return "image"
}

// ObjectKey builds the storage key for an image uploaded for a pair.
// The millisecond timestamp keeps repeated uploads of the same file apart.
func ObjectKey(pairID, filename string, now time.Time) string {
	pair := sanitizeSegment(pairID)
	if pair == "" {
		pair = "_"
	}
	return pair + "/" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + SanitizeFilename(filename)
}

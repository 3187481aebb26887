package textutil

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxFileNameBytes bounds generated names below common filesystem limits.
const MaxFileNameBytes = 200

var unsafeSeparators = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"|", "-",
)

// SanitizeFileName turns a comic title or archive name into something safe
// to create on disk. Path separators and wildcards become dashes, quotes,
// angle brackets, '?' and control characters are dropped, whitespace runs
// collapse to one space and leading dots are removed so the result is never
// hidden. Names longer than MaxFileNameBytes are shortened while keeping the
// extension.
func SanitizeFileName(name string) string {
	name = unsafeSeparators.Replace(name)
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '?' || r == '"' || r == '<' || r == '>':
			return -1
		case unicode.IsControl(r):
			return -1
		case unicode.IsSpace(r):
			return ' '
		}
		return r
	}, name)
	name = strings.Join(strings.Fields(name), " ")
	name = strings.TrimLeft(name, ". ")
	return truncateKeepingExt(name, MaxFileNameBytes)
}

func truncateKeepingExt(name string, limit int) string {
	if len(name) <= limit {
		return name
	}
	ext := filepath.Ext(name)
	if len(ext) >= limit/2 {
		ext = ""
	}
	stem := name[:len(name)-len(ext)]
	cut := limit - len(ext)
	for cut > 0 && !utf8.RuneStart(stem[cut]) {
		cut--
	}
	return strings.TrimRight(stem[:cut], " -") + ext
}

// SanitizeToken reduces a title to a lowercase slug of letters, digits, '-'
// and '_'. Runs of anything else collapse into a single underscore. Empty
// results become "unknown".
func SanitizeToken(value string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.TrimSpace(value) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(unicode.ToLower(r))
		case r == '-':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		default:
			pendingSep = true
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	return out
}

// Plural picks the word form for n.
func Plural(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}

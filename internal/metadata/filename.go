package metadata

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"folio/internal/comic"
	"folio/internal/language"
)

var (
	parenSegment = regexp.MustCompile(`\(([^()]*)\)`)
	fourDigits   = regexp.MustCompile(`^\d{4}$`)
	// issueNumber matches 3-4 digits with an optional trailing letter bounded
	// by whitespace, '#' or '-' on the left and whitespace or end on the right.
	issueNumber = regexp.MustCompile(`(?:^|[\s#-])(\d{3,4}[A-Za-z]?)(?:\s|$)`)
	// trailingNumber is the fallback: 1-3 digits at the very end.
	trailingNumber = regexp.MustCompile(`(?:^|\D)(\d{1,3})$`)
)

var formatTokens = []string{"digital", "paper", "scan", "print"}

var cosmeticWords = map[string]struct{}{
	"cover":      {},
	"variant":    {},
	"remastered": {},
	"hd":         {},
}

// ParseFromFilename derives metadata from a comic's file name. It never fails:
// when nothing can be recognized the whole base name becomes the series.
func ParseFromFilename(name string) comic.Metadata {
	var m comic.Metadata
	stem := comic.StripExtension(filepath.Base(name))

	for _, match := range parenSegment.FindAllStringSubmatch(stem, -1) {
		classifySegment(&m, strings.TrimSpace(match[1]))
	}

	base := strings.Join(strings.Fields(parenSegment.ReplaceAllString(stem, " ")), " ")

	series, number := splitIssue(base)
	if series != "" {
		m.Series = comic.Ptr(series)
	}
	if number != "" {
		m.Number = comic.Ptr(number)
	}
	return m
}

func classifySegment(m *comic.Metadata, token string) {
	if token == "" {
		return
	}
	if fourDigits.MatchString(token) {
		year, err := strconv.Atoi(token)
		if err == nil && year >= 1900 && year < 2100 && m.Year == nil {
			m.Year = comic.Ptr(year)
		}
		return
	}
	lower := strings.ToLower(token)
	for _, f := range formatTokens {
		if strings.Contains(lower, f) {
			if m.Format == nil {
				m.Format = comic.Ptr(token)
			}
			return
		}
	}
	if code := language.FromWord(token); code != "" {
		if m.LanguageISO == nil {
			m.LanguageISO = comic.Ptr(code)
		}
		return
	}
	if looksLikePublisher(token) {
		if m.Publisher == nil {
			m.Publisher = comic.Ptr(NormalizePublisher(token))
		}
		return
	}
	length := utf8.RuneCountInString(token)
	if length <= 2 || length >= 30 || isCosmetic(lower) {
		return
	}
	if m.ScanInformation == nil {
		m.ScanInformation = comic.Ptr(token)
	}
	if m.Publisher == nil {
		m.Publisher = comic.Ptr(token)
	}
}

func isCosmetic(lower string) bool {
	if strings.Contains(lower, "graphic novel") {
		return true
	}
	for _, word := range strings.Fields(lower) {
		if _, ok := cosmeticWords[word]; ok {
			return true
		}
	}
	return false
}

// splitIssue separates the series name from the issue number.
func splitIssue(base string) (series, number string) {
	loc := issueNumber.FindStringSubmatchIndex(base)
	if loc == nil {
		loc = trailingNumber.FindStringSubmatchIndex(base)
	}
	if loc == nil {
		return base, ""
	}
	number = base[loc[2]:loc[3]]
	series = strings.Trim(base[:loc[2]], " #-_\t")
	return series, number
}

package language

import (
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// bibliographic maps ISO 639-2/B codes, common in older ComicInfo files, to
// their terminology forms, which the BCP 47 parser understands.
var bibliographic = map[string]string{
	"alb": "sqi", "arm": "hye", "baq": "eus", "bur": "mya", "chi": "zho",
	"cze": "ces", "dut": "nld", "fre": "fra", "geo": "kat", "ger": "deu",
	"gre": "ell", "ice": "isl", "mac": "mkd", "may": "msa", "per": "fas",
	"rum": "ron", "slo": "slk", "tib": "bod", "wel": "cym",
}

// wordLanguages are the languages whose names are recognized in file names,
// in English and in the language itself.
var wordLanguages = []language.Tag{
	language.English, language.Spanish, language.French, language.German,
	language.Italian, language.Portuguese, language.Japanese, language.Korean,
	language.Chinese, language.Russian, language.Dutch, language.Polish,
	language.Swedish, language.Danish, language.Norwegian, language.Finnish,
	language.Turkish, language.Czech, language.Hungarian, language.Greek,
	language.Ukrainian, language.Indonesian,
}

var byWord = buildWordIndex()

func buildWordIndex() map[string]string {
	names := display.English.Languages()
	index := make(map[string]string, len(wordLanguages)*3)
	for _, tag := range wordLanguages {
		base, _ := tag.Base()
		for _, name := range []string{names.Name(tag), display.Self.Name(tag)} {
			name = strings.ToLower(name)
			if name == "" || strings.ContainsRune(name, ' ') {
				continue
			}
			index[name] = base.String()
			index[fold(name)] = base.String()
		}
	}
	return index
}

// fold strips combining marks so "français" also matches "francais".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize converts a ComicInfo LanguageISO value ("en", "eng", "fre",
// "en-US", "pt_BR") or a language name to ISO 639-1. Unrecognized 2-letter
// codes pass through lowercased; anything else returns "".
func Normalize(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if iso, ok := byWord[code]; ok {
		return iso
	}
	if iso, ok := byWord[fold(code)]; ok {
		return iso
	}
	if base, ok := parseBase(code); ok {
		return base.String()
	}
	if len(code) == 2 && isAlpha(code) {
		return code
	}
	return ""
}

func parseBase(code string) (language.Base, bool) {
	primary, _, _ := strings.Cut(strings.ReplaceAll(code, "_", "-"), "-")
	if term, ok := bibliographic[primary]; ok {
		code = term
	}
	tag, err := language.Parse(code)
	if err != nil {
		return language.Base{}, false
	}
	base, conf := tag.Base()
	if conf == language.No || base.String() == "und" {
		return language.Base{}, false
	}
	return base, true
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// FromWord matches a whole file-name token such as "French" or "(español)".
// Bare codes are not accepted; "(de)" is more often noise than a language.
func FromWord(token string) string {
	token = strings.ToLower(strings.Trim(strings.TrimSpace(token), "()[]"))
	if iso, ok := byWord[token]; ok {
		return iso
	}
	return ""
}

// DisplayName returns the English name for a recognized code, the
// uppercased input otherwise, and "" for empty input.
func DisplayName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	if base, ok := parseBase(strings.ToLower(code)); ok {
		if name := display.English.Languages().Name(base); name != "" {
			return name
		}
	}
	if iso, ok := byWord[strings.ToLower(code)]; ok {
		return display.English.Languages().Name(language.Make(iso))
	}
	return strings.ToUpper(code)
}

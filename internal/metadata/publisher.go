package metadata

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"folio/internal/comic"
)

// PublisherInfo is one entry of the static publisher alias table.
type PublisherInfo struct {
	Name    string
	Aliases []string
}

var publishers = []PublisherInfo{
	{Name: "DC Comics", Aliases: []string{"dc comics", "dc", "dccomics"}},
	{Name: "Marvel Comics", Aliases: []string{"marvel", "marvel comics", "marvelcomics"}},
	{Name: "Image Comics", Aliases: []string{"image", "image comics"}},
	{Name: "Dark Horse Comics", Aliases: []string{"dark horse", "darkhorse"}},
	{Name: "IDW Publishing", Aliases: []string{"idw", "idw publishing"}},
	{Name: "Boom! Studios", Aliases: []string{"boom", "boom!", "boom studios"}},
	{Name: "Valiant Comics", Aliases: []string{"valiant", "valiant entertainment"}},
	{Name: "Dynamite Entertainment", Aliases: []string{"dynamite"}},
	{Name: "Vertigo", Aliases: []string{"vertigo"}},
	{Name: "WildStorm", Aliases: []string{"wildstorm"}},
	{Name: "MAX Comics", Aliases: []string{"max", "max comics"}},
	{Name: "Icon Comics", Aliases: []string{"icon", "icon comics"}},
	{Name: "Black Label", Aliases: []string{"black label", "dc black label"}},
	{Name: "Fantagraphics", Aliases: []string{"fantagraphics"}},
	{Name: "Drawn & Quarterly", Aliases: []string{"drawn and quarterly", "drawn & quarterly"}},
	{Name: "Viz Media", Aliases: []string{"viz", "viz media"}},
	{Name: "Kodansha", Aliases: []string{"kodansha"}},
	{Name: "Yen Press", Aliases: []string{"yen press"}},
	{Name: "Webtoon", Aliases: []string{"webtoon"}},
	{Name: "Tapas", Aliases: []string{"tapas"}},
	{Name: "EC Comics", Aliases: []string{"ec comics", "ec"}},
	{Name: "Gold Key", Aliases: []string{"gold key"}},
	{Name: "Dell Comics", Aliases: []string{"dell", "dell comics"}},
}

// publisherSuffixes mark a parenthetical as a publisher even when it is not
// in the alias table, e.g. "(Ahoy Comics)".
var publisherSuffixes = []string{"comics", "press", "publishing", "entertainment", "studios", "books"}

// DetectPublisher looks text up in the alias table. Aliases match on word
// boundaries after case folding, so "dc" matches "DC Black Label" but not "Decal".
// A miss is not an error.
func DetectPublisher(text string) (PublisherInfo, bool) {
	haystack := " " + matchKey(text) + " "
	if strings.TrimSpace(haystack) == "" {
		return PublisherInfo{}, false
	}
	for _, publisher := range publishers {
		for _, alias := range publisher.Aliases {
			if strings.Contains(haystack, " "+matchKey(alias)+" ") {
				return publisher, true
			}
		}
	}
	return PublisherInfo{}, false
}

// NormalizePublisher maps a raw publisher string onto its canonical name,
// returning the trimmed input when nothing matches.
func NormalizePublisher(raw string) string {
	if info, ok := DetectPublisher(raw); ok {
		return info.Name
	}
	return strings.TrimSpace(raw)
}

// ExtractPublisher picks the best publisher for a merged record: the
// publisher field, then the imprint, then a publisher named in the series.
func ExtractPublisher(m comic.Metadata) *string {
	if p := strings.TrimSpace(comic.Deref(m.Publisher)); p != "" {
		return comic.Ptr(NormalizePublisher(p))
	}
	if imprint := strings.TrimSpace(comic.Deref(m.Imprint)); imprint != "" {
		return comic.Ptr(NormalizePublisher(imprint))
	}
	if info, ok := DetectPublisher(comic.Deref(m.Series)); ok {
		return comic.Ptr(info.Name)
	}
	return nil
}

func looksLikePublisher(token string) bool {
	if _, ok := DetectPublisher(token); ok {
		return true
	}
	words := strings.Fields(matchKey(token))
	if len(words) < 2 {
		return false
	}
	last := words[len(words)-1]
	for _, suffix := range publisherSuffixes {
		if last == suffix {
			return true
		}
	}
	return false
}

// matchKey folds case and reduces punctuation to single spaces, keeping the
// characters that appear inside publisher names.
func matchKey(text string) string {
	folded := cases.Fold().String(text)
	var b strings.Builder
	space := true
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '!' || r == '&' {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

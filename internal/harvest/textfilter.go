package harvest

import "strings"

// DefaultBlocklist is the fixed keyword list for the text safety stage.
// Matching is substring-based, which is known to catch innocent words that
// contain a blocked term ("ass" inside "assessment"); that trade-off is
// accepted to keep the filter aggressive.
var DefaultBlocklist = []string{
	"nude", "naked", "sexy", "hot", "adult", "porn", "xxx", "erotic", "18+", "onlyfans",
	"bikini", "lingerie", "booty", "ass", "tits", "boobs", "cleavage", "thong", "nsfw",
	"sex", "topless", "underwear", "braless", "see-through", "explicit", "fetish",
}

// KeywordFilter rejects records whose combined title and description contain
// any blocklisted term, case-insensitively.
type KeywordFilter struct {
	terms []string
}

// NewKeywordFilter builds a filter from the given terms. Empty terms are
// dropped; all matching is lower-cased once here.
func NewKeywordFilter(terms []string) *KeywordFilter {
	f := &KeywordFilter{}
	for _, raw := range terms {
		term := strings.ToLower(strings.TrimSpace(raw))
		if term == "" {
			continue
		}
		f.terms = append(f.terms, term)
	}
	return f
}

// NewDefaultKeywordFilter builds a filter over DefaultBlocklist.
func NewDefaultKeywordFilter() *KeywordFilter {
	return NewKeywordFilter(DefaultBlocklist)
}

// IsTextSafe reports whether the title+description pair is free of
// blocklisted terms.
func (f *KeywordFilter) IsTextSafe(title, description string) bool {
	text := strings.ToLower(title + " " + description)
	for _, term := range f.terms {
		if strings.Contains(text, term) {
			return false
		}
	}
	return true
}

package scripture

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// bookAliases maps lowercased alternative spellings to the lowercased
// canonical book name.
var bookAliases = map[string]string{
	"song of songs":   "song of solomon",
	"songs":           "song of solomon",
	"canticles":       "song of solomon",
	"psalm":           "psalms",
	"psalms of david": "psalms",
	"revelations":     "revelation",
}

// lowerWords are forced back to lowercase when they appear between two
// other words after title-casing.
var lowerWords = map[string]string{
	"Of": "of",
}

// NormalizeBookName canonicalizes free-form book input ("  song of songs",
// "JOHN", "1 corinthians") to the corpus spelling ("Song of Solomon", "John",
// "1 Corinthians"). It does not check that the book exists.
func NormalizeBookName(input string) string {
	words := strings.Fields(strings.ToLower(norm.NFKC.String(input)))
	if len(words) == 0 {
		return ""
	}

	joined := strings.Join(words, " ")
	if alias, ok := bookAliases[joined]; ok {
		words = strings.Fields(alias)
	}

	for i, w := range words {
		w = capitalize(w)
		if i > 0 && i < len(words)-1 {
			if lw, ok := lowerWords[w]; ok {
				w = lw
			}
		}
		words[i] = w
	}

	return strings.Join(words, " ")
}

func capitalize(word string) string {
	r, size := utf8.DecodeRuneInString(word)
	if r == utf8.RuneError {
		return word
	}
	return string(unicode.ToUpper(r)) + word[size:]
}

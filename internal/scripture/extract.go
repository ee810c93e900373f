package scripture

import (
	"iter"
	"strings"
	"unicode/utf8"
)

// Verses yields the verse texts of ref in chapter-then-verse order. Every
// call walks the range from the beginning. A verse missing from the corpus
// yields an empty string.
func Verses(ref ResolvedReference, c *Corpus) iter.Seq[string] {
	return func(yield func(string) bool) {
		for ch := ref.StartChapter; ch <= ref.EndChapter; ch++ {
			first, last := 1, c.MaxVerse(ref.Book, ch)
			if ch == ref.StartChapter {
				first = ref.StartVerse
			}
			if ch == ref.EndChapter {
				last = ref.EndVerse
			}
			for v := first; v <= last; v++ {
				text, _ := c.Get(VerseKey{Book: ref.Book, Chapter: ch, Verse: v}.String())
				if !yield(text) {
					return
				}
			}
		}
	}
}

// Extract returns the space-joined text of ref.
func Extract(ref ResolvedReference, c *Corpus) string {
	var b strings.Builder
	for text := range Verses(ref, c) {
		b.WriteString(text)
		b.WriteByte(' ')
	}
	return strings.TrimSpace(b.String())
}

// Snippet shortens text to at most n runes, appending "..." when cut.
func Snippet(text string, n int) string {
	if n < 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n]) + "..."
}

package scripture

import (
	"fmt"
	"strconv"
	"strings"
)

// VerseKey identifies a single verse.
type VerseKey struct {
	Book    string
	Chapter int
	Verse   int
}

// String returns the canonical lookup form "<book> <chapter>:<verse>".
func (k VerseKey) String() string {
	return k.Book + " " + strconv.Itoa(k.Chapter) + ":" + strconv.Itoa(k.Verse)
}

// ParseVerseKey splits a reference token such as "1 John 3:16" into its parts.
// The numeric suffix is separated from the book by the last space.
func ParseVerseKey(token string) (VerseKey, bool) {
	token = strings.TrimSpace(token)
	sp := strings.LastIndexByte(token, ' ')
	if sp <= 0 {
		return VerseKey{}, false
	}

	chStr, vsStr, ok := strings.Cut(token[sp+1:], ":")
	if !ok {
		return VerseKey{}, false
	}
	ch, err := strconv.Atoi(chStr)
	if err != nil || ch < 1 {
		return VerseKey{}, false
	}
	vs, err := strconv.Atoi(vsStr)
	if err != nil || vs < 1 {
		return VerseKey{}, false
	}

	return VerseKey{Book: strings.TrimSpace(token[:sp]), Chapter: ch, Verse: vs}, true
}

// RawReference is an unresolved reference as supplied by a caller.
// Empty fields are treated as absent. Verse fields also accept the
// sentinels "start" (StartVerse) and "end" (EndVerse).
type RawReference struct {
	Book         string `json:"book"`
	StartChapter string `json:"startChapter,omitempty"`
	StartVerse   string `json:"startVerse,omitempty"`
	EndChapter   string `json:"endChapter,omitempty"`
	EndVerse     string `json:"endVerse,omitempty"`
}

// ResolvedReference is a fully bounded verse range within one book.
type ResolvedReference struct {
	Book         string `json:"book"`
	StartChapter int    `json:"startChapter"`
	StartVerse   int    `json:"startVerse"`
	EndChapter   int    `json:"endChapter"`
	EndVerse     int    `json:"endVerse"`
}

// Start returns the key of the first verse in the range.
func (r ResolvedReference) Start() VerseKey {
	return VerseKey{Book: r.Book, Chapter: r.StartChapter, Verse: r.StartVerse}
}

// End returns the key of the last verse in the range.
func (r ResolvedReference) End() VerseKey {
	return VerseKey{Book: r.Book, Chapter: r.EndChapter, Verse: r.EndVerse}
}

// String formats the range compactly:
//
//	John 3:16
//	John 3:16-18
//	John 3:16-4:2
func (r ResolvedReference) String() string {
	switch {
	case r.StartChapter == r.EndChapter && r.StartVerse == r.EndVerse:
		return fmt.Sprintf("%s %d:%d", r.Book, r.StartChapter, r.StartVerse)
	case r.StartChapter == r.EndChapter:
		return fmt.Sprintf("%s %d:%d-%d", r.Book, r.StartChapter, r.StartVerse, r.EndVerse)
	default:
		return fmt.Sprintf("%s %d:%d-%d:%d", r.Book, r.StartChapter, r.StartVerse, r.EndChapter, r.EndVerse)
	}
}

// Passage is the text of a resolved range.
type Passage struct {
	Text     string            `json:"text"`
	Resolved ResolvedReference `json:"resolved"`
}

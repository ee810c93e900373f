package scripture

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// referenceGrammar accepts single-string references:
// "John", "John 3", "John 3:16", "1 John 3:16-18", "Genesis 1:1-2:3",
// "John 3:16-end", "Psalms 23-24".
//
//nolint:govet // participle grammar tags are not standard struct tags
type referenceGrammar struct {
	Prefix string       `parser:"@Int?"`
	Words  []string     `parser:"@Word+"`
	Span   *spanGrammar `parser:"@@?"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type spanGrammar struct {
	Chapter string      `parser:"@Int"`
	Verse   *string     `parser:"( \":\" @( Int | \"start\" | \"end\" ) )?"`
	End     *endGrammar `parser:"( ( \"-\" | \"–\" ) @@ )?"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type endGrammar struct {
	First  string  `parser:"@( Int | \"end\" )"`
	Second *string `parser:"( \":\" @( Int | \"end\" ) )?"`
}

var referenceLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Word", Pattern: `\p{L}[\p{L}'.]*`},
	{Name: "Punct", Pattern: `[:\-–]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var referenceParser = participle.MustBuild[referenceGrammar](
	participle.Lexer(referenceLexer),
	participle.Elide("Whitespace"),
	participle.CaseInsensitive("Word"),
)

// ParseReference splits a reference string into the fields Resolve expects.
// The book name is returned as written; Resolve normalizes it.
func ParseReference(s string) (RawReference, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return RawReference{}, fmt.Errorf("empty reference string")
	}

	parsed, err := referenceParser.ParseString("", s)
	if err != nil {
		return RawReference{}, fmt.Errorf("invalid reference format: %q: %w", s, err)
	}

	book := strings.Join(parsed.Words, " ")
	if parsed.Prefix != "" {
		book = parsed.Prefix + " " + book
	}
	raw := RawReference{Book: book}

	span := parsed.Span
	if span == nil {
		return raw, nil
	}
	raw.StartChapter = span.Chapter
	if span.Verse != nil {
		raw.StartVerse = strings.ToLower(*span.Verse)
	}

	if span.End == nil {
		return raw, nil
	}
	first := strings.ToLower(span.End.First)

	switch {
	case span.End.Second != nil:
		raw.EndChapter = first
		raw.EndVerse = strings.ToLower(*span.End.Second)
	case span.Verse != nil || first == SentinelEnd:
		raw.EndVerse = first
	default:
		raw.EndChapter = first
	}

	return raw, nil
}

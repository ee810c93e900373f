package scripture

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

const (
	defaultHeaderLines = 3
	defaultSeparator   = "\t"
	maxLineBytes       = 1 << 20
)

// Corpus is an immutable collection of verse texts keyed by reference.
// Book existence and chapter/verse bounds are derived from the keys.
type Corpus struct {
	verses map[string]string
	books  []string
	index  map[string]map[int]int // book -> chapter -> verse count
}

// Option configures corpus parsing.
type Option func(*loadOptions)

type loadOptions struct {
	headerLines int
	separator   string
	stripMarkup bool
}

// WithHeaderLines sets how many leading lines are skipped (default 3).
func WithHeaderLines(n int) Option {
	return func(o *loadOptions) {
		if n >= 0 {
			o.headerLines = n
		}
	}
}

// WithSeparator sets the reference/text separator (default tab).
func WithSeparator(sep string) Option {
	return func(o *loadOptions) {
		if sep != "" {
			o.separator = sep
		}
	}
}

// WithStripMarkup removes HTML tags and decodes entities in verse text.
func WithStripMarkup() Option {
	return func(o *loadOptions) {
		o.stripMarkup = true
	}
}

// Empty returns a corpus with no books.
func Empty() *Corpus {
	return &Corpus{
		verses: map[string]string{},
		index:  map[string]map[int]int{},
	}
}

// Load builds a corpus from r. A read failure yields an empty corpus so
// that resolution reports the corpus as unavailable.
func Load(r io.Reader, opts ...Option) *Corpus {
	c, err := Parse(r, opts...)
	if err != nil {
		return Empty()
	}
	return c
}

// LoadBytes builds a corpus from an in-memory source.
func LoadBytes(data []byte, opts ...Option) *Corpus {
	return Load(bytes.NewReader(data), opts...)
}

// LoadFile builds a corpus from the file at path. A missing or unreadable
// file yields an empty corpus.
func LoadFile(path string, opts ...Option) *Corpus {
	f, err := os.Open(path)
	if err != nil {
		return Empty()
	}
	defer func() { _ = f.Close() }()
	return Load(f, opts...)
}

// Parse is the strict form of Load: it reports read errors instead of
// returning an empty corpus.
func Parse(r io.Reader, opts ...Option) (*Corpus, error) {
	o := loadOptions{headerLines: defaultHeaderLines, separator: defaultSeparator}
	for _, opt := range opts {
		opt(&o)
	}

	c := Empty()
	seenBooks := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		if line <= o.headerLines {
			continue
		}

		// An empty verse text still counts: "John 3:3\t" is a verse.
		ref, content, ok := strings.Cut(scanner.Text(), o.separator)
		if !ok {
			continue
		}
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		content = strings.TrimSpace(content)
		if o.stripMarkup {
			content = stripMarkup(content)
		}

		_, dup := c.verses[ref]
		c.verses[ref] = content

		book := bookFromRef(ref)
		if book != "" && !seenBooks[book] {
			seenBooks[book] = true
			c.books = append(c.books, book)
		}

		if dup {
			continue
		}
		if key, ok := ParseVerseKey(ref); ok {
			chapters := c.index[key.Book]
			if chapters == nil {
				chapters = make(map[int]int)
				c.index[key.Book] = chapters
			}
			chapters[key.Chapter]++
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read corpus line %d: %w", line+1, err)
	}

	return c, nil
}

// bookFromRef strips the trailing chapter:verse suffix (digits and ASCII
// punctuation) from a reference token.
func bookFromRef(ref string) string {
	return strings.TrimSpace(strings.TrimRightFunc(ref, func(r rune) bool {
		return r < unicode.MaxASCII && (unicode.IsDigit(r) || unicode.IsPunct(r) || unicode.IsSymbol(r))
	}))
}

func stripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}

// IsEmpty reports whether the corpus knows no books.
func (c *Corpus) IsEmpty() bool {
	return c == nil || len(c.books) == 0
}

// Len returns the number of verse keys.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.verses)
}

// Books returns the known book names in source order.
func (c *Corpus) Books() []string {
	if c == nil {
		return nil
	}
	return slices.Clone(c.books)
}

// HasBook reports whether name is a known book. Matching is exact; callers
// normalize first.
func (c *Corpus) HasBook(name string) bool {
	if c == nil {
		return false
	}
	return slices.Contains(c.books, name)
}

// Chapters returns the chapter numbers present for book in ascending order.
func (c *Corpus) Chapters(book string) []int {
	if c == nil {
		return nil
	}
	chapters := make([]int, 0, len(c.index[book]))
	for ch := range c.index[book] {
		chapters = append(chapters, ch)
	}
	slices.Sort(chapters)
	return chapters
}

// MaxChapter returns the greatest chapter number of book, or 0 if unknown.
func (c *Corpus) MaxChapter(book string) int {
	if c == nil {
		return 0
	}
	maxCh := 0
	for ch := range c.index[book] {
		maxCh = max(maxCh, ch)
	}
	return maxCh
}

// MaxVerse returns the number of verses recorded for book and chapter.
func (c *Corpus) MaxVerse(book string, chapter int) int {
	if c == nil {
		return 0
	}
	return c.index[book][chapter]
}

// Has reports whether key is present.
func (c *Corpus) Has(key string) bool {
	if c == nil {
		return false
	}
	_, ok := c.verses[key]
	return ok
}

// Get returns the text stored under key.
func (c *Corpus) Get(key string) (string, bool) {
	if c == nil {
		return "", false
	}
	text, ok := c.verses[key]
	return text, ok
}

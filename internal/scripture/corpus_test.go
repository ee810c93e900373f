package scripture

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// verse counts per chapter for the synthetic test corpus
var testBooks = []struct {
	name   string
	slug   string
	counts []int
}{
	{"John", "jn", []int{51, 25, 36, 54, 47, 71, 53, 59, 41, 42, 57, 50, 38, 31, 27, 33, 26, 40, 42, 31, 25}},
	{"1 John", "1jn", []int{10, 29, 24, 21, 21}},
	{"Song of Solomon", "song", []int{17, 17, 11, 16, 16, 13, 13, 14}},
	{"Psalms", "ps", []int{6, 12, 8}},
}

// testCorpusSource renders the synthetic corpus. Verse text is a single
// token like "jn-3-16" so extracted passages can be counted.
func testCorpusSource() string {
	var b strings.Builder
	b.WriteString("Test Bible\nGenerated for tests\nReference\tText\n")
	for _, book := range testBooks {
		for i, n := range book.counts {
			for v := 1; v <= n; v++ {
				fmt.Fprintf(&b, "%s %d:%d\t%s-%d-%d\n", book.name, i+1, v, book.slug, i+1, v)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func testCorpus(t testing.TB) *Corpus {
	t.Helper()
	c, err := Parse(strings.NewReader(testCorpusSource()))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return c
}

func TestParse_KnownBooksInSourceOrder(t *testing.T) {
	c := testCorpus(t)

	want := []string{"John", "1 John", "Song of Solomon", "Psalms"}
	if diff := cmp.Diff(want, c.Books()); diff != "" {
		t.Errorf("Books() mismatch (-want +got):\n%s", diff)
	}
	if c.IsEmpty() {
		t.Error("Expected corpus to be non-empty")
	}
}

func TestParse_Bounds(t *testing.T) {
	c := testCorpus(t)

	tests := []struct {
		book    string
		chapter int
		verses  int
	}{
		{"John", 3, 36},
		{"John", 21, 25},
		{"1 John", 2, 29},
		{"Song of Solomon", 8, 14},
		{"John", 22, 0},
		{"Jude", 1, 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %d", tt.book, tt.chapter), func(t *testing.T) {
			if got := c.MaxVerse(tt.book, tt.chapter); got != tt.verses {
				t.Errorf("MaxVerse(%q, %d) = %d, want %d", tt.book, tt.chapter, got, tt.verses)
			}
		})
	}

	if got := c.MaxChapter("John"); got != 21 {
		t.Errorf("MaxChapter(John) = %d, want 21", got)
	}
	if got := c.MaxChapter("1 John"); got != 5 {
		t.Errorf("MaxChapter(1 John) = %d, want 5", got)
	}
	if got := c.MaxChapter("Atlantis"); got != 0 {
		t.Errorf("MaxChapter(Atlantis) = %d, want 0", got)
	}
}

func TestParse_PrefixDoesNotLeakAcrossBooks(t *testing.T) {
	c := testCorpus(t)

	// "1 John" keys must not count towards "John" and vice versa.
	if got := c.MaxVerse("John", 4); got != 54 {
		t.Errorf("MaxVerse(John, 4) = %d, want 54", got)
	}
	if got := c.MaxVerse("1 John", 4); got != 21 {
		t.Errorf("MaxVerse(1 John, 4) = %d, want 21", got)
	}
}

func TestParse_HasAndGet(t *testing.T) {
	c := testCorpus(t)

	if !c.Has("John 3:16") {
		t.Error("Expected John 3:16 to exist")
	}
	if c.Has("John 3:37") {
		t.Error("Expected John 3:37 to be absent")
	}
	text, ok := c.Get("1 John 4:8")
	if !ok || text != "1jn-4-8" {
		t.Errorf("Get(1 John 4:8) = %q, %v", text, ok)
	}
	if _, ok := c.Get("john 3:16"); ok {
		t.Error("Expected lookup to be case-sensitive")
	}
}

func TestParse_HeaderAndBlankLinesSkipped(t *testing.T) {
	src := "Genesis 9:9\tthis is a header line\nheader two\nheader three\n\nno separator here\nGenesis 1:1\tIn the beginning\n"
	c := LoadBytes([]byte(src))

	if c.Len() != 1 {
		t.Fatalf("Expected 1 verse, got %d", c.Len())
	}
	if c.Has("Genesis 9:9") {
		t.Error("Header line must not be loaded")
	}
}

func TestParse_SplitsOnFirstSeparator(t *testing.T) {
	src := "h\nh\nh\nJohn 1:1\tIn the beginning\twas the Word\r\n"
	c := LoadBytes([]byte(src))

	text, _ := c.Get("John 1:1")
	if text != "In the beginning\twas the Word" {
		t.Errorf("Unexpected text: %q", text)
	}
}

func TestParse_DuplicateKeysCountOnce(t *testing.T) {
	src := "h\nh\nh\nJohn 1:1\tfirst\nJohn 1:1\tsecond\nJohn 1:2\tthird\n"
	c := LoadBytes([]byte(src))

	if got := c.MaxVerse("John", 1); got != 2 {
		t.Errorf("MaxVerse = %d, want 2", got)
	}
	if text, _ := c.Get("John 1:1"); text != "second" {
		t.Errorf("Expected last duplicate to win, got %q", text)
	}
}

func TestParse_EmptyVerseTextIsKept(t *testing.T) {
	src := "h1\nh2\nh3\nJohn 3:1\tone\nJohn 3:2\ttwo\nJohn 3:3\t\n"
	c := LoadBytes([]byte(src))

	text, ok := c.Get("John 3:3")
	if !ok || text != "" {
		t.Errorf("Get(John 3:3) = %q, %v; want empty text present", text, ok)
	}
	if got := c.MaxVerse("John", 3); got != 3 {
		t.Errorf("MaxVerse(John, 3) = %d, want 3", got)
	}

	whole, err := Resolve(RawReference{Book: "john", StartChapter: "3"}, c)
	if err != nil {
		t.Fatalf("Resolve(john 3) error = %v", err)
	}
	if whole.String() != "John 3:1-3" {
		t.Errorf("Resolve(john 3) = %s, want John 3:1-3", whole)
	}

	single, err := Resolve(RawReference{Book: "john", StartChapter: "3", StartVerse: "3"}, c)
	if err != nil {
		t.Fatalf("Resolve(john 3:3) error = %v", err)
	}
	if single.String() != "John 3:3" {
		t.Errorf("Resolve(john 3:3) = %s, want John 3:3", single)
	}
}

func TestParse_Options(t *testing.T) {
	src := "John 1:1|In the <i>beginning</i> &amp; more\n"
	c := LoadBytes([]byte(src), WithHeaderLines(0), WithSeparator("|"), WithStripMarkup())

	text, ok := c.Get("John 1:1")
	if !ok {
		t.Fatal("Expected John 1:1 to be loaded")
	}
	if text != "In the beginning & more" {
		t.Errorf("Unexpected text: %q", text)
	}
}

func TestLoadFile(t *testing.T) {
	c := LoadFile(filepath.Join("testdata", "sample.txt"), WithStripMarkup())

	want := []string{"Genesis", "John", "Song of Solomon", "1 John", "Psalms"}
	if diff := cmp.Diff(want, c.Books()); diff != "" {
		t.Errorf("Books() mismatch (-want +got):\n%s", diff)
	}
	if got := c.MaxChapter("Genesis"); got != 2 {
		t.Errorf("MaxChapter(Genesis) = %d, want 2", got)
	}
	if text, _ := c.Get("Psalms 23:1"); text != "The LORD is my shepherd; I shall not want." {
		t.Errorf("Unexpected Psalms 23:1 text: %q", text)
	}
}

func TestLoadFile_MissingIsEmpty(t *testing.T) {
	c := LoadFile(filepath.Join("testdata", "does-not-exist.txt"))
	if !c.IsEmpty() {
		t.Error("Expected missing file to yield an empty corpus")
	}
	if c.Len() != 0 || len(c.Books()) != 0 {
		t.Error("Expected no verses and no books")
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestLoad_ReadErrorIsEmpty(t *testing.T) {
	if _, err := Parse(failingReader{}); err == nil {
		t.Error("Expected Parse to report the read error")
	}
	if c := Load(failingReader{}); !c.IsEmpty() {
		t.Error("Expected Load to fail soft with an empty corpus")
	}
}

func TestNilCorpus(t *testing.T) {
	var c *Corpus
	if !c.IsEmpty() || c.HasBook("John") || c.Has("John 1:1") || c.MaxChapter("John") != 0 {
		t.Error("Expected nil corpus to behave as empty")
	}
}

func TestChapters(t *testing.T) {
	c := testCorpus(t)
	if diff := cmp.Diff([]int{1, 2, 3}, c.Chapters("Psalms")); diff != "" {
		t.Errorf("Chapters mismatch (-want +got):\n%s", diff)
	}
}

func TestBookFromRef(t *testing.T) {
	tests := map[string]string{
		"John 3:16":           "John",
		"1 John 4:8":          "1 John",
		"Song of Solomon 2:1": "Song of Solomon",
		"Psalms 119:176":      "Psalms",
		"Genesis 1:1.":        "Genesis",
		"Obadiah":             "Obadiah",
	}
	for ref, want := range tests {
		if got := bookFromRef(ref); got != want {
			t.Errorf("bookFromRef(%q) = %q, want %q", ref, got, want)
		}
	}
}

func TestParseVerseKey(t *testing.T) {
	tests := []struct {
		in   string
		want VerseKey
		ok   bool
	}{
		{"John 3:16", VerseKey{"John", 3, 16}, true},
		{"1 John 4:8", VerseKey{"1 John", 4, 8}, true},
		{"Song of Solomon 2:1", VerseKey{"Song of Solomon", 2, 1}, true},
		{"John 3", VerseKey{}, false},
		{"John 0:1", VerseKey{}, false},
		{"John3:16", VerseKey{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseVerseKey(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseVerseKey(%q) = %+v, %v; want %+v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
		if ok && got.String() != tt.in {
			t.Errorf("String() = %q, want %q", got.String(), tt.in)
		}
	}
}

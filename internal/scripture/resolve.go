package scripture

import (
	"strconv"
	"strings"
)

const (
	// SentinelStart may be given as the start verse to mean verse 1.
	SentinelStart = "start"
	// SentinelEnd may be given as the end verse to mean the last verse of
	// the end chapter.
	SentinelEnd = "end"
)

// Resolve turns a partial reference into a fully bounded range validated
// against c.
//
// Defaults are layered: a missing start chapter selects the whole book, a
// chapter without verses selects the whole chapter, a start verse without an
// end verse selects one verse (or runs to the end of the end chapter when the
// chapters differ).
func Resolve(raw RawReference, c *Corpus) (ResolvedReference, error) {
	if c.IsEmpty() {
		return ResolvedReference{}, newResolveError(KindCorpusUnavailable, "", "")
	}

	book := NormalizeBookName(raw.Book)
	if !c.HasBook(book) {
		return ResolvedReference{}, newResolveError(KindUnknownBook, "book", strings.TrimSpace(raw.Book))
	}

	startCh := strings.TrimSpace(raw.StartChapter)
	startVs := strings.TrimSpace(raw.StartVerse)
	endCh := strings.TrimSpace(raw.EndChapter)
	endVs := strings.TrimSpace(raw.EndVerse)

	if startCh == "" && (startVs != "" || endCh != "" || endVs != "") {
		return ResolvedReference{}, newResolveError(KindMissingStartChapter, "startChapter", "")
	}

	ref := ResolvedReference{Book: book}

	if startCh == "" {
		ref.StartChapter = 1
		ref.EndChapter = c.MaxChapter(book)
	} else {
		n, err := parseNumber("startChapter", startCh)
		if err != nil {
			return ResolvedReference{}, err
		}
		ref.StartChapter = n
		ref.EndChapter = n
		if endCh != "" {
			if ref.EndChapter, err = parseNumber("endChapter", endCh); err != nil {
				return ResolvedReference{}, err
			}
		}
	}

	// Any verse field, sentinels included, disables whole-chapter mode.
	if startVs == "" && endVs == "" {
		ref.StartVerse = 1
		ref.EndVerse = c.MaxVerse(book, ref.EndChapter)
	} else {
		if startVs == "" || isSentinel(startVs, SentinelStart) {
			ref.StartVerse = 1
		} else {
			n, err := parseNumber("startVerse", startVs)
			if err != nil {
				return ResolvedReference{}, err
			}
			ref.StartVerse = n
		}

		switch {
		case isSentinel(endVs, SentinelEnd):
			ref.EndVerse = c.MaxVerse(book, ref.EndChapter)
		case endVs == "" && ref.EndChapter != ref.StartChapter:
			ref.EndVerse = c.MaxVerse(book, ref.EndChapter)
		case endVs == "":
			ref.EndVerse = ref.StartVerse
		default:
			n, err := parseNumber("endVerse", endVs)
			if err != nil {
				return ResolvedReference{}, err
			}
			ref.EndVerse = n
		}
	}

	if ref.EndChapter < ref.StartChapter {
		return ResolvedReference{}, newResolveError(KindInvalidChapterOrder, "endChapter", strconv.Itoa(ref.EndChapter))
	}
	if ref.EndChapter == ref.StartChapter && ref.EndVerse < ref.StartVerse {
		return ResolvedReference{}, newResolveError(KindInvalidVerseOrder, "endVerse", strconv.Itoa(ref.EndVerse))
	}

	if start := ref.Start().String(); !c.Has(start) {
		return ResolvedReference{}, newResolveError(KindReferenceOutOfBounds, "start", start)
	}
	if end := ref.End().String(); !c.Has(end) {
		return ResolvedReference{}, newResolveError(KindReferenceOutOfBounds, "end", end)
	}

	return ref, nil
}

// Lookup resolves raw against c and extracts the passage text.
func Lookup(raw RawReference, c *Corpus) (*Passage, error) {
	ref, err := Resolve(raw, c)
	if err != nil {
		return nil, err
	}
	return &Passage{Text: Extract(ref, c), Resolved: ref}, nil
}

func isSentinel(value, sentinel string) bool {
	return strings.EqualFold(value, sentinel)
}

// parseNumber accepts a plain decimal integer. Sentinels are rejected here;
// callers check the slots that allow them before parsing.
func parseNumber(field, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &ResolveError{Kind: KindMalformedNumber, Field: field, Value: value, Err: err}
	}
	return n, nil
}

package scripture

import (
	"errors"
	"fmt"
)

// Kind identifies why a reference could not be resolved.
type Kind int

const (
	KindCorpusUnavailable Kind = iota + 1
	KindUnknownBook
	KindMissingStartChapter
	KindInvalidChapterOrder
	KindInvalidVerseOrder
	KindReferenceOutOfBounds
	KindMalformedNumber
)

func (k Kind) String() string {
	switch k {
	case KindCorpusUnavailable:
		return "corpus_unavailable"
	case KindUnknownBook:
		return "unknown_book"
	case KindMissingStartChapter:
		return "missing_start_chapter"
	case KindInvalidChapterOrder:
		return "invalid_chapter_order"
	case KindInvalidVerseOrder:
		return "invalid_verse_order"
	case KindReferenceOutOfBounds:
		return "reference_out_of_bounds"
	case KindMalformedNumber:
		return "malformed_number"
	default:
		return "unknown"
	}
}

// Sentinel errors, one per Kind. A *ResolveError unwraps to the sentinel of
// its kind so callers can match with errors.Is.
var (
	ErrCorpusUnavailable    = errors.New("unable to retrieve bible contents: corpus unavailable")
	ErrUnknownBook          = errors.New("book does not exist in the bible")
	ErrMissingStartChapter  = errors.New("startChapter is required when specifying verses or end chapters")
	ErrInvalidChapterOrder  = errors.New("endChapter must be greater or equal to startChapter")
	ErrInvalidVerseOrder    = errors.New("endVerse must be greater or equal to startVerse")
	ErrReferenceOutOfBounds = errors.New("the chapter and/or verses do not exist in the bible")
	ErrMalformedNumber      = errors.New("malformed chapter or verse number")
)

var kindSentinels = map[Kind]error{
	KindCorpusUnavailable:    ErrCorpusUnavailable,
	KindUnknownBook:          ErrUnknownBook,
	KindMissingStartChapter:  ErrMissingStartChapter,
	KindInvalidChapterOrder:  ErrInvalidChapterOrder,
	KindInvalidVerseOrder:    ErrInvalidVerseOrder,
	KindReferenceOutOfBounds: ErrReferenceOutOfBounds,
	KindMalformedNumber:      ErrMalformedNumber,
}

// ResolveError describes a failed resolution with the offending input.
type ResolveError struct {
	Kind  Kind   // Failure classification
	Field string // Input field involved (e.g. "book", "endVerse"), if any
	Value string // Offending value, if any
	Err   error  // Underlying error, if any
}

func (e *ResolveError) Error() string {
	msg := kindSentinels[e.Kind].Error()
	switch {
	case e.Field != "" && e.Value != "":
		msg = fmt.Sprintf("%s: %s=%q", msg, e.Field, e.Value)
	case e.Value != "":
		msg = fmt.Sprintf("%s: %q", msg, e.Value)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the per-kind sentinel and the underlying error, if any.
func (e *ResolveError) Unwrap() []error {
	errs := []error{kindSentinels[e.Kind]}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func newResolveError(kind Kind, field, value string) *ResolveError {
	return &ResolveError{Kind: kind, Field: field, Value: value}
}

// KindOf reports the Kind carried by err, or 0 when err is not a resolution error.
func KindOf(err error) Kind {
	var re *ResolveError
	if errors.As(err, &re) {
		return re.Kind
	}
	return 0
}

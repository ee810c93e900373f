package cli

import (
	"fmt"

	"github.com/ppiankov/selah/internal/scripture"
)

const referenceUsage = `References can be given as positional fields
  <book> [startChapter [startVerse [endChapter [endVerse]]]]
where verses may be "start" or "end", as a single quoted string
  "John 3:16-18"
or with --ref.`

// referenceFromArgs builds a RawReference from --ref, a single reference
// string, or up to five positional fields.
func referenceFromArgs(args []string, ref string) (scripture.RawReference, error) {
	switch {
	case ref != "":
		if len(args) > 0 {
			return scripture.RawReference{}, fmt.Errorf("use either --ref or positional arguments, not both")
		}
		return scripture.ParseReference(ref)
	case len(args) == 0:
		return scripture.RawReference{}, fmt.Errorf("a reference is required")
	case len(args) == 1:
		return scripture.ParseReference(args[0])
	case len(args) > 5:
		return scripture.RawReference{}, fmt.Errorf("too many arguments: expected at most 5, got %d", len(args))
	}

	fields := make([]string, 5)
	copy(fields, args)
	return scripture.RawReference{
		Book:         fields[0],
		StartChapter: fields[1],
		StartVerse:   fields[2],
		EndChapter:   fields[3],
		EndVerse:     fields[4],
	}, nil
}

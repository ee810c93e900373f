package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ppiankov/selah/internal/scripture"
)

const batchCorpus = "h\nh\nh\n" +
	"John 3:16\tFor God so loved the world\n" +
	"John 3:17\tFor God sent not his Son\n" +
	"Psalms 23:1\tThe LORD is my shepherd\n"

type corpusResolver struct {
	corpus *scripture.Corpus
}

func (r corpusResolver) Passage(_ context.Context, raw scripture.RawReference) (*scripture.Passage, error) {
	return scripture.Lookup(raw, r.corpus)
}

func newTestProcessor(concurrency int) *BatchProcessor {
	return NewBatchProcessor(corpusResolver{scripture.LoadBytes([]byte(batchCorpus))}, concurrency)
}

func TestBatchProcessor_Process(t *testing.T) {
	lines := []ReferenceLine{
		{Number: 1, Text: "John 3:16-17"},
		{Number: 2, Text: "Psalm 23:1"},
		{Number: 4, Text: "Jude 1:1"},
		{Number: 5, Text: "not a reference 3:"},
	}

	results := newTestProcessor(3).Process(context.Background(), lines)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}

	for i, r := range results {
		if r.Line != lines[i] {
			t.Errorf("result %d out of order: %+v", i, r.Line)
		}
	}

	if results[0].Passage == nil || results[0].Passage.Text != "For God so loved the world For God sent not his Son" {
		t.Errorf("unexpected passage: %+v", results[0].Passage)
	}
	if got := results[1].Passage.Resolved.String(); got != "Psalms 23:1" {
		t.Errorf("expected alias to resolve to Psalms 23:1, got %s", got)
	}
	if !errors.Is(results[2].GetError(), scripture.ErrUnknownBook) {
		t.Errorf("expected unknown book error, got %v", results[2].GetError())
	}
	if results[3].GetError() == nil {
		t.Error("expected parse error for malformed line")
	}
}

// cancellingResolver cancels the batch after its first lookup.
type cancellingResolver struct {
	corpusResolver
	cancel context.CancelFunc
}

func (r cancellingResolver) Passage(ctx context.Context, raw scripture.RawReference) (*scripture.Passage, error) {
	defer r.cancel()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.corpusResolver.Passage(ctx, raw)
}

func TestBatchProcessor_Process_CancelledReportsEveryLine(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lines := make([]ReferenceLine, 50)
	for i := range lines {
		lines[i] = ReferenceLine{Number: i + 1, Text: "John 3:16"}
	}

	resolver := cancellingResolver{corpusResolver{scripture.LoadBytes([]byte(batchCorpus))}, cancel}
	results := NewBatchProcessor(resolver, 1).Process(ctx, lines)

	if len(results) != len(lines) {
		t.Fatalf("expected %d results, got %d", len(lines), len(results))
	}
	failed := 0
	for i, r := range results {
		if r == nil || r.Line != lines[i] {
			t.Fatalf("result %d missing or out of order: %+v", i, r)
		}
		if err := r.GetError(); err != nil {
			if !errors.Is(err, context.Canceled) {
				t.Errorf("result %d: expected context.Canceled, got %v", i, err)
			}
			failed++
		}
	}
	if failed == 0 {
		t.Error("expected lines after cancellation to be reported as failed")
	}
}

func TestBatchProcessor_Process_Empty(t *testing.T) {
	results := newTestProcessor(2).Process(context.Background(), nil)
	if results == nil || len(results) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", results)
	}
}

func TestReadReferences(t *testing.T) {
	src := "# sermon series\nJohn 3:16\n\n  Psalm 23  \nJohn 3:16\n"
	lines, err := ReadReferences(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ReadReferences failed: %v", err)
	}

	want := []ReferenceLine{
		{Number: 2, Text: "John 3:16"},
		{Number: 4, Text: "Psalm 23"},
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.txt")
	if err := os.WriteFile(path, []byte("John 3:16\nPsalms 23\n"), 0644); err != nil {
		t.Fatal(err)
	}

	results, err := newTestProcessor(2).ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Error != nil {
			t.Errorf("line %d: unexpected error %v", r.Line.Number, r.Error)
		}
	}
}

func TestBatchProcessor_ProcessFile_NonExistent(t *testing.T) {
	_, err := newTestProcessor(1).ProcessFile(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}

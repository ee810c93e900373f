package worker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/selah/internal/scripture"
)

// Resolver turns a parsed reference into a passage
type Resolver interface {
	Passage(ctx context.Context, raw scripture.RawReference) (*scripture.Passage, error)
}

// ReferenceLine is one non-comment line of a batch file
type ReferenceLine struct {
	Number int    // 1-based line number in the source
	Text   string // trimmed reference text
}

// ReferenceJob resolves one reference line
type ReferenceJob struct {
	Index    int
	Line     ReferenceLine
	Resolver Resolver
}

// Execute parses and resolves the line
func (j *ReferenceJob) Execute(ctx context.Context) Result {
	result := &ReferenceResult{Index: j.Index, Line: j.Line}

	raw, err := scripture.ParseReference(j.Line.Text)
	if err != nil {
		result.Error = err
		return result
	}

	passage, err := j.Resolver.Passage(ctx, raw)
	if err != nil {
		result.Error = err
		return result
	}
	result.Passage = passage
	return result
}

// ReferenceResult is the outcome for one reference line
type ReferenceResult struct {
	Index   int
	Line    ReferenceLine
	Passage *scripture.Passage
	Error   error
}

// GetError returns the error from the result
func (r *ReferenceResult) GetError() error {
	return r.Error
}

// BatchProcessor resolves many references concurrently against one resolver
type BatchProcessor struct {
	resolver    Resolver
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(resolver Resolver, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		resolver:    resolver,
		concurrency: concurrency,
	}
}

// Process resolves lines and returns one result per line in input order.
// Lines skipped because ctx ended carry the context error.
func (b *BatchProcessor) Process(ctx context.Context, lines []ReferenceLine) []*ReferenceResult {
	if len(lines) == 0 {
		return []*ReferenceResult{}
	}

	pool := NewPoolWithContext(ctx, b.concurrency)
	pool.Start()

	for i, line := range lines {
		pool.Submit(&ReferenceJob{
			Index:    i,
			Line:     line,
			Resolver: b.resolver,
		})
	}

	refResults := make([]*ReferenceResult, len(lines))
	for _, result := range pool.Wait() {
		r := result.(*ReferenceResult)
		refResults[r.Index] = r
	}

	// Lines still queued when ctx ended never ran.
	for i, r := range refResults {
		if r == nil {
			refResults[i] = &ReferenceResult{Index: i, Line: lines[i], Error: skippedError(ctx)}
		}
	}

	return refResults
}

func skippedError(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("not processed: %w", err)
	}
	return errors.New("not processed")
}

// ProcessFile reads references from a file and resolves them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*ReferenceResult, error) {
	lines, err := ReadReferencesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read references: %w", err)
	}

	return b.Process(ctx, lines), nil
}

// ReadReferencesFromFile reads references from a file (one per line)
func ReadReferencesFromFile(filePath string) ([]ReferenceLine, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ReadReferences(file)
}

// ReadReferences reads one reference per line. Blank lines and lines
// starting with # are skipped; repeated references are kept once.
func ReadReferences(r io.Reader) ([]ReferenceLine, error) {
	var lines []ReferenceLine
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	number := 0
	for scanner.Scan() {
		number++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			lines = append(lines, ReferenceLine{Number: number, Text: line})
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return lines, nil
}

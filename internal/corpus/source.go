// Package corpus loads the verse corpus from a file or a URL and keeps the
// current copy available to concurrent readers.
package corpus

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Source opens the raw corpus text.
type Source interface {
	// Name identifies the source in logs (a path or URL).
	Name() string

	// Open returns a reader over the corpus. Callers close it.
	Open(ctx context.Context) (io.ReadCloser, error)
}

// FileSource reads the corpus from a local file.
type FileSource struct {
	Path string
}

// Name returns the file path
func (s FileSource) Name() string {
	return s.Path
}

// Open opens the file for reading
func (s FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	return f, nil
}

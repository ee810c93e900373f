// Package lyrics loads the song library that passages are matched against.
package lyrics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Song is one worship song.
type Song struct {
	Filename string `json:"filename"`
	Name     string `json:"name"`
	Artist   string `json:"artist,omitempty"`
	Lyrics   string `json:"lyrics"`
}

// Loader provides the current song library.
type Loader interface {
	Songs(ctx context.Context) ([]Song, error)
}

// DirLoader reads every *.txt file in Dir. Files are returned sorted by
// name. An optional first line of the form "Artist: Name" sets Artist and is
// dropped from the lyrics.
type DirLoader struct {
	Dir string
}

// Songs reads the directory on every call, so added files are picked up
// without a restart.
func (l DirLoader) Songs(ctx context.Context) ([]Song, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return nil, fmt.Errorf("read lyrics dir: %w", err)
	}

	var songs []Song
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".txt") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := os.ReadFile(filepath.Join(l.Dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}

		artist, text := splitArtist(string(data))
		songs = append(songs, Song{
			Filename: entry.Name(),
			Name:     TitleFromFilename(entry.Name()),
			Artist:   artist,
			Lyrics:   text,
		})
	}

	slices.SortFunc(songs, func(a, b Song) int {
		return strings.Compare(a.Filename, b.Filename)
	})
	return songs, nil
}

// StaticLoader serves a fixed song list.
type StaticLoader []Song

// Songs returns a copy of the list
func (l StaticLoader) Songs(context.Context) ([]Song, error) {
	return slices.Clone([]Song(l)), nil
}

// TitleFromFilename turns "amazing_grace.txt" into "Amazing Grace".
func TitleFromFilename(name string) string {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	words := strings.Fields(strings.ReplaceAll(name, "_", " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

func splitArtist(text string) (artist, lyrics string) {
	text = strings.TrimSpace(text)
	first, rest, _ := strings.Cut(text, "\n")
	if value, ok := strings.CutPrefix(strings.TrimSpace(first), "Artist:"); ok {
		return strings.TrimSpace(value), strings.TrimSpace(rest)
	}
	return "", text
}

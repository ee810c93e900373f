package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/selah/internal/pipeline"
	"github.com/ppiankov/selah/internal/scripture"
)

var booksJSON bool

// booksCmd represents the books command
var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "List the books in the corpus",
	Long:  `List every book found in the corpus with its chapter and verse counts, in corpus order.`,
	Args:  cobra.NoArgs,
	RunE:  runBooks,
}

func init() {
	rootCmd.AddCommand(booksCmd)

	booksCmd.Flags().BoolVar(&booksJSON, "json", false, "print as JSON")
}

type bookSummary struct {
	Name     string `json:"name"`
	Chapters int    `json:"chapters"`
	Verses   int    `json:"verses"`
}

func runBooks(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	p, err := pipeline.Build(ctx, cfg)
	if err != nil {
		return err
	}

	c := p.Corpus()
	if c.IsEmpty() {
		return scripture.ErrCorpusUnavailable
	}

	books := summarizeBooks(c)
	if booksJSON {
		return p.Renderer().WriteJSON(cmd.OutOrStdout(), books)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BOOK\tCHAPTERS\tVERSES")
	for _, b := range books {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", b.Name, b.Chapters, b.Verses)
	}
	return tw.Flush()
}

func summarizeBooks(c *scripture.Corpus) []bookSummary {
	books := c.Books()
	out := make([]bookSummary, 0, len(books))
	for _, name := range books {
		s := bookSummary{Name: name, Chapters: c.MaxChapter(name)}
		for _, ch := range c.Chapters(name) {
			s.Verses += c.MaxVerse(name, ch)
		}
		out = append(out, s)
	}
	return out
}

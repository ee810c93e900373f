package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/selah/internal/pipeline"
)

var (
	matchRef      string
	outJSON       string
	outMD         string
	matchTimeout  time.Duration
	matchProvider string
	matchModel    string
	matchLimit    int
)

// matchCmd represents the match command
var matchCmd = &cobra.Command{
	Use:   "match <reference>",
	Short: "Rank worship songs against a passage",
	Long: `Match resolves a reference, loads every song in the lyrics directory and
ranks the songs by how well they fit the passage.

` + referenceUsage + `

Providers:
  lexical    offline word and theme overlap (default, no API key)
  openai     OpenAI chat completion (OPENAI_API_KEY)
  anthropic  Anthropic messages API (ANTHROPIC_API_KEY)
  ollama     local Ollama server (OLLAMA_BASE_URL)
  space      hosted NLP space (HF_SPACE_URL, HF_TOKEN)

Example:
  selah match "Psalms 23"
  selah match John 3 16 --limit 5
  selah match "Romans 8:28-39" --provider openai --model gpt-4o-mini --json report.json`,
	Args: cobra.MaximumNArgs(5),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	// Output flags
	matchCmd.Flags().StringVar(&outJSON, "json", "", `write the JSON report to a path ("-" for stdout)`)
	matchCmd.Flags().StringVar(&outMD, "md", "", `write a Markdown report to a path ("-" for stdout)`)

	matchCmd.Flags().StringVar(&matchRef, "ref", "", `reference as a single string, e.g. "John 3:16"`)
	matchCmd.Flags().DurationVar(&matchTimeout, "timeout", 2*time.Minute, "overall timeout")

	// Matcher flags
	matchCmd.Flags().StringVar(&matchProvider, "provider", "", "matcher provider (lexical, openai, anthropic, ollama, space)")
	matchCmd.Flags().StringVar(&matchModel, "model", "", "model name for language-model providers")
	matchCmd.Flags().IntVar(&matchLimit, "limit", 0, "return at most this many songs (0 for all)")
}

func runMatch(cmd *cobra.Command, args []string) error {
	raw, err := referenceFromArgs(args, matchRef)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("provider") {
		cfg.Matcher.Provider = matchProvider
		cfg.Matcher.APIKey = ""
		cfg.Matcher.BaseURL = ""
		applyProviderEnv(&cfg.Matcher)
	}
	if flags.Changed("model") {
		cfg.Matcher.Model = matchModel
	}
	if flags.Changed("limit") {
		cfg.Matcher.Limit = matchLimit
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), matchTimeout)
	defer cancel()

	p, err := pipeline.Build(ctx, cfg)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Matching with %s...\n", cfg.Matcher.Provider)
	}

	report, err := p.Match(ctx, raw)
	if err != nil {
		return err
	}

	r := p.Renderer()
	if outJSON != "" {
		if err := r.RenderJSON(report, outJSON); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
	}
	if outMD != "" {
		if err := r.RenderMarkdown(report, outMD); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
	}
	if outJSON == "-" || outMD == "-" {
		return nil
	}
	return r.WriteSummary(cmd.OutOrStdout(), report)
}

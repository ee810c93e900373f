package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/selah/internal/pipeline"
)

var (
	passageRef  string
	passageJSON bool
	timeout     time.Duration
)

// passageCmd represents the passage command
var passageCmd = &cobra.Command{
	Use:   "passage <reference>",
	Short: "Resolve a reference and print the passage text",
	Long: `Passage resolves a scripture reference against the corpus and prints
the canonical reference followed by the passage text.

` + referenceUsage + `

Example:
  selah passage John 3 16
  selah passage "1 John 4:7-8"
  selah passage psalms 23
  selah passage genesis 1 start 2 end --json`,
	Args: cobra.MaximumNArgs(5),
	RunE: runPassage,
}

func init() {
	rootCmd.AddCommand(passageCmd)

	passageCmd.Flags().StringVar(&passageRef, "ref", "", `reference as a single string, e.g. "John 3:16"`)
	passageCmd.Flags().BoolVar(&passageJSON, "json", false, "print the passage as JSON")
	passageCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall timeout")
}

func runPassage(cmd *cobra.Command, args []string) error {
	raw, err := referenceFromArgs(args, passageRef)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	p, err := pipeline.Build(ctx, cfg)
	if err != nil {
		return err
	}

	passage, err := p.Passage(ctx, raw)
	if err != nil {
		return err
	}

	if passageJSON {
		return p.Renderer().WriteJSON(cmd.OutOrStdout(), passage)
	}
	if err := p.Renderer().WritePassage(cmd.OutOrStdout(), passage); err != nil {
		return fmt.Errorf("write passage: %w", err)
	}
	return nil
}

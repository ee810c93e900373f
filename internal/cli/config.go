package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/selah/internal/model"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage Selah configuration",
	Long: `Manage Selah configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (SELAH_*, e.g. SELAH_CORPUS_PATH)
3. Config file (~/.selah/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after merging defaults, the config file, environment variables and flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if used := viper.ConfigFileUsed(); used != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Configuration file: %s\n\n", used)
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "No configuration file found (using defaults)\n\n")
		}
		return writeConfig(cmd.OutOrStdout(), redact(cfg))
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.selah/config.yaml with all available options.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := configDir()
		if err != nil {
			return err
		}
		path := filepath.Join(dir, "config.yaml")

		if err := initConfigFile(path); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Created default configuration: %s\n", path)
		fmt.Fprintf(out, "\nTo view the configuration:\n")
		fmt.Fprintf(out, "  selah config show\n")
		fmt.Fprintf(out, "\nTo customize, edit the file with your preferred editor:\n")
		fmt.Fprintf(out, "  $EDITOR %s\n\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

const configHeader = `# Selah Configuration File
#
# Configuration hierarchy (highest to lowest priority):
#   1. CLI flags
#   2. Environment variables (SELAH_*)
#   3. This config file
#   4. Built-in defaults

`

const configFooter = `
# API keys (recommended to use environment variables instead):
#   export OPENAI_API_KEY=sk-...
#   export ANTHROPIC_API_KEY=sk-ant-...
#   export HF_TOKEN=hf_...
#   export HF_SPACE_URL=https://user-space.hf.space
#   export OLLAMA_BASE_URL=http://localhost:11434
`

// initConfigFile writes the default configuration to path. An existing file
// is never overwritten.
func initConfigFile(path string) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("config file already exists: %s\nUse 'selah config show' to view it, or delete it first to recreate", path)
		}
		return fmt.Errorf("create config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close config file: %w", closeErr)
		}
	}()

	if _, err := io.WriteString(f, configHeader); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := writeConfig(f, model.DefaultConfig()); err != nil {
		return err
	}
	if _, err := io.WriteString(f, configFooter); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func writeConfig(w io.Writer, c *model.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return enc.Close()
}

// redact returns a copy of c with secrets masked
func redact(c *model.Config) *model.Config {
	out := *c
	if out.Matcher.APIKey != "" {
		out.Matcher.APIKey = "********"
	}
	return &out
}

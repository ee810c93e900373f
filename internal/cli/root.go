package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/selah/internal/logging"
	"github.com/ppiankov/selah/internal/model"
)

// Version is set at build time with -ldflags "-X ...cli.Version=..."
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool

	// cfg is the merged configuration, loaded before any subcommand runs
	cfg *model.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "selah",
	Short: "Selah - scripture passage lookup and worship song matching",
	Long: `Selah resolves loosely specified scripture references against a
plain-text verse corpus and extracts the passage text.

References may be given as separate fields (book, chapters, verses, with
"start" and "end" as shorthands) or as a single string like "John 3:16-18".

Passages can be matched against a library of worship song lyrics, either
offline with the built-in lexical matcher or with a hosted language model.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of Selah.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "selah %s\n", Version)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()

	// Global flags
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.selah/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json, logfmt)")
	flags.String("corpus", "", "path to the verse corpus file")
	flags.String("corpus-url", "", "fetch the verse corpus from a URL instead of a file")
	flags.String("lyrics", "", "directory of song lyric files")
	flags.Bool("no-cache", false, "disable cache (force fresh fetch)")

	// Bind flags to viper keys
	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = viper.BindPFlag("corpus.path", flags.Lookup("corpus"))
	_ = viper.BindPFlag("corpus.url", flags.Lookup("corpus-url"))
	_ = viper.BindPFlag("lyrics.dir", flags.Lookup("lyrics"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// setup loads configuration and installs the logger
func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := loadConfig(viper.GetViper(), cfgFile)
	if err != nil {
		return err
	}

	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		loaded.Cache.Enabled = false
	}
	if verbose {
		loaded.Log.Level = "debug"
	}

	logger, err := logging.Setup(logging.Options{Level: loaded.Log.Level, Format: loaded.Log.Format})
	if err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	if used := viper.ConfigFileUsed(); used != "" {
		logger.Debug("using config file", "path", used)
	}

	cfg = loaded
	return nil
}

// loadConfig layers the config file and SELAH_* environment variables over
// the defaults. Flags bound to v take precedence over both.
func loadConfig(v *viper.Viper, file string) (*model.Config, error) {
	defaults, err := defaultSettings()
	if err != nil {
		return nil, err
	}
	setDefaults(v, "", defaults)

	v.SetEnvPrefix("SELAH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys omitted from the defaults still need an environment binding
	for _, key := range []string{"matcher.api_key", "matcher.base_url", "http.http_proxy", "http.https_proxy", "http.no_proxy"} {
		_ = v.BindEnv(key)
	}

	if file != "" {
		v.SetConfigFile(file)
	} else if dir, err := configDir(); err == nil {
		v.AddConfigPath(dir)
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	loaded := model.DefaultConfig()
	if err := v.Unmarshal(loaded); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	applyProviderEnv(&loaded.Matcher)

	return loaded, nil
}

// applyProviderEnv fills credentials from the providers' conventional
// environment variables when the config leaves them empty.
func applyProviderEnv(mc *model.MatcherConfig) {
	var keyVar, urlVar string
	switch strings.ToLower(mc.Provider) {
	case "openai":
		keyVar = "OPENAI_API_KEY"
	case "anthropic", "claude":
		keyVar = "ANTHROPIC_API_KEY"
	case "ollama":
		urlVar = "OLLAMA_BASE_URL"
	case "space", "huggingface", "hf":
		keyVar, urlVar = "HF_TOKEN", "HF_SPACE_URL"
	}
	if mc.APIKey == "" && keyVar != "" {
		mc.APIKey = os.Getenv(keyVar)
	}
	if mc.BaseURL == "" && urlVar != "" {
		mc.BaseURL = os.Getenv(urlVar)
	}
}

// defaultSettings renders model.DefaultConfig as a nested map keyed by the
// yaml tags, which match the mapstructure tags viper decodes with.
func defaultSettings() (map[string]any, error) {
	data, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("marshal defaults: %w", err)
	}
	var settings map[string]any
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("unmarshal defaults: %w", err)
	}
	return settings, nil
}

func setDefaults(v *viper.Viper, prefix string, settings map[string]any) {
	for key, value := range settings {
		if prefix != "" {
			key = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			setDefaults(v, key, nested)
			continue
		}
		v.SetDefault(key, value)
	}
}

// configDir returns ~/.selah
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".selah"), nil
}

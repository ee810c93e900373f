package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/selah/internal/api"
	"github.com/ppiankov/selah/internal/corpus"
	"github.com/ppiankov/selah/internal/logging"
	"github.com/ppiankov/selah/internal/pipeline"
	"github.com/ppiankov/selah/internal/util"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve passage lookup and song matching over HTTP",
	Long: `Serve starts the HTTP API:

  GET /healthcheck                 liveness, {"status":"alive"}
  GET /books                       books and chapter counts
  GET /passage?book=John&startChapter=3&startVerse=16
  GET /songs/matches?book=Psalms&startChapter=23

Either the book/startChapter/startVerse/endChapter/endVerse parameters or a
single ref=John+3:16 parameter select the passage.

With --watch the corpus file is reloaded when it changes on disk.

Example:
  selah serve --addr :3000
  selah serve --watch --corpus ./bible.txt`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().Bool("watch", false, "reload the corpus file when it changes")
	serveCmd.Flags().String("cors-origin", "*", "Access-Control-Allow-Origin value (empty disables CORS)")
	serveCmd.Flags().Bool("trust-proxy", false, "rate limit by X-Forwarded-For/X-Real-IP instead of the peer address")

	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("corpus.watch", serveCmd.Flags().Lookup("watch"))
	_ = viper.BindPFlag("server.cors_origin", serveCmd.Flags().Lookup("cors-origin"))
	_ = viper.BindPFlag("server.trust_proxy", serveCmd.Flags().Lookup("trust-proxy"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := pipeline.Build(ctx, cfg)
	if err != nil {
		return err
	}

	logger := logging.Default()
	if cfg.Corpus.Watch {
		if cfg.Corpus.URL != "" {
			logger.Warn("corpus watching only applies to local files", "url", cfg.Corpus.URL)
		} else {
			go watchCorpus(ctx, p.Store(), util.ExpandHome(cfg.Corpus.Path))
		}
	}

	return api.NewServer(p, cfg.Server).ListenAndServe(ctx)
}

func watchCorpus(ctx context.Context, store *corpus.Store, path string) {
	logger := logging.Default()
	logger.Info("watching corpus", "path", path)
	if err := corpus.Watch(ctx, store, path, cfg.Corpus.WatchDebounce); err != nil {
		logger.Error("corpus watcher stopped", "error", err)
	}
}

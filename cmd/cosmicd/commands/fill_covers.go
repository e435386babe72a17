package commands

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Nytuo/cosmiccomics-server/internal/config"
	"github.com/Nytuo/cosmiccomics-server/internal/covers"
	"github.com/Nytuo/cosmiccomics-server/internal/library"
	"github.com/Nytuo/cosmiccomics-server/internal/observability"
	"github.com/Nytuo/cosmiccomics-server/internal/storage"
)

var fillCoversCmd = &cobra.Command{
	Use:   "fill-covers",
	Short: "Extract covers for every book whose cover is blank",
	Long: `Scan the metadata store for books without a cover, pull the first
image out of each book's container, and transcode the results to the
delivery format.`,
	RunE: runFillCovers,
}

func init() {
	rootCmd.AddCommand(fillCoversCmd)
}

func runFillCovers(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:   cfg.Observability.LogLevel,
		Format:  "console",
		Service: "cosmicd",
	})

	store, err := storage.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Init(cmd.Context()); err != nil {
		return fmt.Errorf("init store: %w", err)
	}

	filler := covers.NewFiller(
		observability.Component(logger, "covers"), store,
		library.ValidImageExtensions, library.CoverDir(cfg.Library.BasePath))

	var bar *progressbar.ProgressBar
	filler.OnBook = func(done, total int) {
		if bar == nil {
			bar = progressbar.Default(int64(total), "filling covers")
		}
		bar.Set(done)
	}

	if err := filler.Fill(cmd.Context()); err != nil {
		return err
	}
	if bar != nil {
		bar.Finish()
	}
	fmt.Println("Cover fill pass complete.")
	return nil
}

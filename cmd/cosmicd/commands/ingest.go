package commands

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Nytuo/cosmiccomics-server/internal/config"
	"github.com/Nytuo/cosmiccomics-server/internal/epub"
	"github.com/Nytuo/cosmiccomics-server/internal/ingest"
	"github.com/Nytuo/cosmiccomics-server/internal/library"
	"github.com/Nytuo/cosmiccomics-server/internal/observability"
	"github.com/Nytuo/cosmiccomics-server/internal/pdfrender"
	"github.com/Nytuo/cosmiccomics-server/internal/progress"
)

var (
	ingestFile  string
	ingestToken string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Materialize one book container into a working directory",
	Long:  "Run a single ingestion outside the server, useful for smoke-testing a container.",
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestFile, "file", "", "path to the book container (required)")
	ingestCmd.Flags().StringVar(&ingestToken, "token", "", "profile token (default: a fresh UUID)")
	ingestCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	token := ingestToken
	if token == "" {
		token = uuid.New().String()
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:   cfg.Observability.LogLevel,
		Format:  "console",
		Service: "cosmicd",
	})

	reporter := progress.NewReporter()
	rasterizer := pdfrender.NewRasterizer(reporter)
	converter := epub.NewConverter(reporter, rasterizer, cfg.Browser.ExecPath)
	coordinator := ingest.NewCoordinator(
		observability.Component(logger, "ingest"), reporter, rasterizer, converter)

	workDir := library.WorkingDir(cfg.Library.BasePath, token)
	if err := coordinator.Ingest(cmd.Context(), ingestFile, workDir, token); err != nil {
		return err
	}

	pages := library.ListPageImages(workDir, library.ValidImageExtensions)
	fmt.Printf("Ingested %s: %d pages in %s\n", ingestFile, len(pages), workDir)
	return nil
}

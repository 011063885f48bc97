package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sgx-labs/folio/internal/cli"
	"github.com/sgx-labs/folio/internal/site"
	"github.com/sgx-labs/folio/internal/watcher"
)

func buildCmd() *cobra.Command {
	var (
		outDir string
		watch  bool
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Write the blog to a directory as static HTML",
		Long: `Render every page of the blog into the output directory. The directory
is emptied first.

Examples:
  folio build                  # Write to build.output_dir
  folio build --out dist       # Custom output directory
  folio build --watch          # Rebuild whenever a document changes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), cmd.OutOrStdout(), outDir, watch)
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "", "Output directory (default from config)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Rebuild on changes until interrupted")
	return cmd
}

func runBuild(ctx context.Context, w io.Writer, outDir string, watch bool) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.log.Sync()

	if outDir == "" {
		outDir = a.cfg.Build.OutputDir
	}
	opts := site.Options{
		Service:   a.svc,
		Site:      a.site(),
		Prefix:    a.cfg.RoutePrefix(),
		OutputDir: outDir,
		StaticDir: a.cfg.Build.StaticDir,
		Logger:    a.log,
	}

	build := func() error {
		stats, err := site.Build(opts)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Built %s posts, %d years, %d categories into %s (%s)\n",
			cli.FormatNumber(stats.Posts), stats.Years, stats.Categories,
			cli.ShortenHome(outDir), stats.Duration.Round(time.Millisecond))
		if stats.Problems > 0 {
			cli.Warn(w, "%d document(s) had problems; run 'folio check' for details", stats.Problems)
		}
		return nil
	}

	if err := build(); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(w, "Watching for changes. Press Ctrl+C to stop.")
	return watcher.Watch(ctx, watcher.Options{
		Root:      a.root,
		Extension: a.cfg.Content.Extension,
		SkipDirs:  a.cfg.SkipDirSet(),
		StaticDir: a.cfg.Build.StaticDir,
		Logger:    a.log,
	}, func(paths []string) {
		a.log.Info("rebuilding", zap.Int("changed", len(paths)))
		if err := build(); err != nil {
			a.log.Error("rebuild failed", zap.Error(err))
		}
	})
}

// Package main is the entrypoint for the folio CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sgx-labs/folio/internal/blog"
	"github.com/sgx-labs/folio/internal/config"
	"github.com/sgx-labs/folio/internal/logging"
	"github.com/sgx-labs/folio/internal/render"
	"github.com/sgx-labs/folio/internal/theme"
)

// Version is set at build time via ldflags.
var Version = "dev"

// logLevelOverride is set by the --log-level flag.
var logLevelOverride string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "folio",
		Short: "Serve and build a blog from a tree of markdown documents",
		Long: `folio indexes a directory of markdown documents with YAML, TOML or JSON
front matter and presents them as a blog: an overview of recent posts,
year and category listings, and one page per published post.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	root.AddCommand(versionCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(buildCmd())
	root.AddCommand(listCmd())
	root.AddCommand(categoriesCmd())
	root.AddCommand(yearsCmd())
	root.AddCommand(showCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(exportCmd())
	root.AddCommand(mcpCmd())
	root.AddCommand(configCmd())

	root.PersistentFlags().StringVar(&config.FileOverride, "config", "", "Path to folio.toml (default: ./folio.toml or ./.folio/config.toml)")
	root.PersistentFlags().StringVar(&config.RootOverride, "root", "", "Content root (overrides config and FOLIO_CONTENT_ROOT)")
	root.PersistentFlags().StringVar(&logLevelOverride, "log-level", "", "Log level: debug, info, warn, error")

	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the folio version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "folio %s\n", Version)
			return nil
		},
	}
}

// app bundles what every command needs after loading configuration.
type app struct {
	cfg  *config.Config
	log  *zap.Logger
	svc  *blog.Service
	root string
}

func loadApp() (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	level := cfg.Log.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	log, err := logging.New(level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	root, err := cfg.ContentRoot()
	if err != nil {
		return nil, err
	}
	renderer, err := render.New(cfg.Render.Engine, render.Options{
		HardWraps:         cfg.Render.HardWraps,
		OpenLinksInNewTab: cfg.Render.OpenLinksInNewTab,
	})
	if err != nil {
		return nil, err
	}
	svc, err := blog.New(blog.Options{
		Root:        root,
		Extension:   cfg.Content.Extension,
		SkipDirs:    cfg.SkipDirSet(),
		RecentLimit: cfg.RecentLimit(),
		Renderer:    renderer,
		Logger:      log,
	})
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log, svc: svc, root: root}, nil
}

func (a *app) site() theme.Site {
	return theme.Site{
		Title:       a.cfg.Site.Title,
		Description: a.cfg.Site.Description,
		BaseURL:     a.cfg.Site.BaseURL,
	}
}

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sgx-labs/folio/internal/blog"
	"github.com/sgx-labs/folio/internal/cli"
	"github.com/sgx-labs/folio/internal/posts"
)

func listCmd() *cobra.Command {
	var (
		q      posts.Query
		format string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List published posts, newest first",
		Long: `List published posts, newest first.

Examples:
  folio list                          # All published posts
  folio list --year 2025              # One year
  folio list --category "Dev Notes"   # One category (name or slug)
  folio list --limit 5 --format json  # Machine-readable`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.OutOrStdout(), q, format)
		},
	}
	cmd.Flags().StringVar(&q.Year, "year", "", "Only posts from this year")
	cmd.Flags().StringVar(&q.Category, "category", "", "Only posts in this category")
	cmd.Flags().IntVar(&q.Limit, "limit", 0, "Maximum number of posts (0 for all)")
	cmd.Flags().StringVar(&format, "format", cli.FormatText, "Output format: text or json")
	return cmd
}

func runList(w io.Writer, q posts.Query, format string) error {
	if !cli.ValidFormat(format) {
		return fmt.Errorf("unknown format %q (want text or json)", format)
	}
	if q.Limit < 0 {
		return fmt.Errorf("--limit must not be negative")
	}
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.log.Sync()

	records, err := a.svc.List(q)
	if err != nil {
		return err
	}
	list := blog.Summarize(records)
	if format == cli.FormatJSON {
		return cli.WriteJSON(w, list)
	}
	cli.PostList(w, list)
	return nil
}

func categoriesCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List categories with post counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cli.ValidFormat(format) {
				return fmt.Errorf("unknown format %q (want text or json)", format)
			}
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.log.Sync()
			cats, err := a.svc.Categories()
			if err != nil {
				return err
			}
			if format == cli.FormatJSON {
				return cli.WriteJSON(cmd.OutOrStdout(), cats)
			}
			cli.Counts(cmd.OutOrStdout(), cli.CategoryRows(cats))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", cli.FormatText, "Output format: text or json")
	return cmd
}

func yearsCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "years",
		Short: "List years with post counts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cli.ValidFormat(format) {
				return fmt.Errorf("unknown format %q (want text or json)", format)
			}
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.log.Sync()
			years, err := a.svc.Years()
			if err != nil {
				return err
			}
			if format == cli.FormatJSON {
				return cli.WriteJSON(cmd.OutOrStdout(), years)
			}
			cli.Counts(cmd.OutOrStdout(), cli.YearRows(years))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", cli.FormatText, "Output format: text or json")
	return cmd
}

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sgx-labs/folio/internal/cli"
)

func showCmd() *cobra.Command {
	var (
		html   bool
		format string
	)
	cmd := &cobra.Command{
		Use:   "show <slug>",
		Short: "Print one published post",
		Long: `Print one published post by slug.

Examples:
  folio show 2025/hello-world          # Header and markdown body
  folio show 2025/hello-world --html   # Rendered HTML body
  folio show 2025/hello-world --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.OutOrStdout(), args[0], html, format)
		},
	}
	cmd.Flags().BoolVar(&html, "html", false, "Print the rendered HTML instead of the markdown body")
	cmd.Flags().StringVar(&format, "format", cli.FormatText, "Output format: text or json")
	return cmd
}

func runShow(w io.Writer, slug string, html bool, format string) error {
	if !cli.ValidFormat(format) {
		return fmt.Errorf("unknown format %q (want text or json)", format)
	}
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.log.Sync()

	post, err := a.svc.Post(slug)
	if err != nil {
		return err
	}
	if format == cli.FormatJSON {
		return cli.WriteJSON(w, post)
	}

	cli.Header(w, post.Title)
	fmt.Fprintln(w)
	if post.LongDate != "" {
		fmt.Fprintf(w, "  Date:     %s\n", post.LongDate)
	}
	if post.Category != nil {
		fmt.Fprintf(w, "  Category: %s\n", post.Category.Name)
	}
	if len(post.Tags) > 0 {
		fmt.Fprintf(w, "  Tags:     #%s\n", strings.Join(post.Tags, " #"))
	}
	fmt.Fprintln(w)
	if html {
		fmt.Fprintln(w, string(post.HTML))
	} else {
		fmt.Fprintln(w, post.Body)
	}
	return nil
}

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sgx-labs/folio/internal/cli"
)

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [slug...]",
		Short: "Index the content directory and report documents with problems",
		Long: `Walk the content directory once and report every document that was
skipped for a malformed header or kept without a usable date. Exits non-zero
when anything is reported.

Slugs given as arguments are looked up in the same index and reported as
published, unpublished or missing. A missing slug also counts as a problem.

Examples:
  folio check
  folio check 2025/hello-world 2024/draft`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.OutOrStdout(), args)
		},
	}
}

func runCheck(w io.Writer, slugs []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.log.Sync()

	idx, err := a.svc.Index()
	if err != nil {
		return err
	}
	published := len(idx.Published())

	cli.Header(w, "folio check")
	cli.Section(w, "Content")
	fmt.Fprintf(w, "  Root:      %s\n", cli.ShortenHome(idx.Root))
	fmt.Fprintf(w, "  Documents: %s\n", cli.FormatNumber(len(idx.Records)))
	fmt.Fprintf(w, "  Published: %s\n", cli.FormatNumber(published))

	missing := 0
	if len(slugs) > 0 {
		cli.Section(w, "Posts")
		for _, s := range slugs {
			rec, ok := idx.Lookup(s)
			switch {
			case !ok:
				missing++
				cli.Warn(w, "%s: not indexed", s)
			case !rec.Published():
				fmt.Fprintf(w, "  %s: unpublished\n", s)
			case !rec.DateValid:
				fmt.Fprintf(w, "  %s: published, undated\n", s)
			default:
				fmt.Fprintf(w, "  %s: published %s\n", s, rec.FormattedDate)
			}
		}
	}

	if len(idx.Problems) == 0 && missing == 0 {
		fmt.Fprintln(w, "\n  No problems found.")
		return nil
	}
	if len(idx.Problems) > 0 {
		cli.Section(w, "Problems")
		cli.Problems(w, idx.Problems)
	}
	return fmt.Errorf("%d document(s) with problems", len(idx.Problems)+missing)
}

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sgx-labs/folio/internal/cli"
	"github.com/sgx-labs/folio/internal/store"
)

func exportCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a snapshot of the post index to a SQLite database",
		Long: `Index the content directory once and write every post, published or not,
to a SQLite database for ad-hoc queries. An existing snapshot in the same
file is replaced.

Examples:
  folio export --db folio.db
  sqlite3 folio.db 'SELECT year, COUNT(*) FROM posts WHERE published GROUP BY year'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.OutOrStdout(), dbPath)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "folio.db", "SQLite database path")
	return cmd
}

func runExport(w io.Writer, dbPath string) error {
	if dbPath == "" {
		return fmt.Errorf("--db is required")
	}
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.log.Sync()

	idx, err := a.svc.Index()
	if err != nil {
		return err
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.ReplaceIndex(idx.Records, idx.Root); err != nil {
		return err
	}
	count, err := db.PostCount()
	if err != nil {
		return err
	}
	tags, err := db.TagCounts()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Exported %s posts (%d tags) to %s\n",
		cli.FormatNumber(count), len(tags), cli.ShortenHome(dbPath))
	if built, ok := db.Meta("built_at"); ok {
		fmt.Fprintf(w, "Snapshot built at %s\n", built)
	}
	if len(idx.Problems) > 0 {
		cli.Warn(w, "%d document(s) had problems; run 'folio check' for details", len(idx.Problems))
	}
	return nil
}

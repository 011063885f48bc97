package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/sgx-labs/folio/internal/mcp"
	"github.com/sgx-labs/folio/internal/setup"
)

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the blog to MCP clients over stdio",
		Long: `Start an MCP server on stdin/stdout with read-only tools:

  list_posts        Published posts, filtered by year or category
  get_post          One post's header and markdown body
  list_categories   Categories with post counts
  list_years        Years with post counts

Logs go to stderr so they never mix with the protocol stream.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.log.Sync()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return mcpserver.New(a.svc, Version, a.log).Serve(ctx)
		},
	}

	var remove bool
	install := &cobra.Command{
		Use:   "install [dir]",
		Short: "Register folio in dir/.mcp.json (default: current directory)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.Getwd()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				dir = args[0]
			}
			if remove {
				return setup.UnregisterMCP(cmd.OutOrStdout(), dir)
			}
			a, err := loadApp()
			if err != nil {
				return err
			}
			return setup.RegisterMCP(cmd.OutOrStdout(), dir, a.root)
		},
	}
	install.Flags().BoolVar(&remove, "remove", false, "Remove the folio entry instead")
	cmd.AddCommand(install)

	return cmd
}

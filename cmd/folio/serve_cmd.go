package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sgx-labs/folio/internal/web"
)

func serveCmd() *cobra.Command {
	var (
		addr     string
		openFlag bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the blog over HTTP",
		Long: `Start a web server for the blog. Every request reads the content
directory again, so edits show up on the next page load.

Examples:
  folio serve                       # Listen on the configured address
  folio serve --addr :8080          # Custom address
  folio serve --open                # Open the overview in a browser`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), addr, openFlag)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().BoolVar(&openFlag, "open", false, "Open the overview in a browser")
	return cmd
}

func runServe(ctx context.Context, addr string, openFlag bool) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.log.Sync()

	if addr == "" {
		addr = a.cfg.Server.Addr
	}
	if info, err := os.Stat(a.root); err != nil || !info.IsDir() {
		return fmt.Errorf("content root %s is not a readable directory", a.root)
	}

	srv, err := web.New(web.Options{
		Service:   a.svc,
		Site:      a.site(),
		Prefix:    a.cfg.RoutePrefix(),
		StaticDir: a.cfg.Build.StaticDir,
		LocalOnly: a.cfg.Server.LocalOnly,
		Version:   Version,
		Logger:    a.log,
	})
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if openFlag {
		go func() {
			time.Sleep(300 * time.Millisecond)
			openBrowser(fmt.Sprintf("http://%s%s/", browserHost(addr), a.cfg.RoutePrefix()))
		}()
	}

	return srv.Run(ctx, addr)
}

// browserHost turns a listen address like ":4040" into something a browser
// can open.
func browserHost(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return
	}
	cmd.Run()
}

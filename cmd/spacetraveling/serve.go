package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/eringen/spacetraveling"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the blog and revalidates its pages in the background",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app := spacetraveling.New(siteConfig, spacetraveling.ViewFuncs{}, spacetraveling.WithStaticDir(staticDir))
		defer app.Close()
		return app.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", ":3000", "listen address")
}

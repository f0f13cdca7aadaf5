package main

import (
	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"github.com/eringen/spacetraveling"
)

var outputDir string

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Writes the whole blog as static files",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := spacetraveling.New(siteConfig, spacetraveling.ViewFuncs{}, spacetraveling.WithStaticDir(staticDir))
		if err := app.Export(cmd.Context(), outputDir); err != nil {
			return err
		}
		log.Infof("site written to %s", outputDir)
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVarP(&outputDir, "out", "o", "dist", "output directory")
}

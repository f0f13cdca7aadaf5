package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"github.com/eringen/spacetraveling"
)

var (
	cfgFile    string
	staticDir  string
	siteConfig spacetraveling.SiteConfig
)

var rootCmd = &cobra.Command{
	Use:   "spacetraveling",
	Short: "A blog rendered from a Prismic repository",
	Long: `spacetraveling renders the posts of a Prismic repository as a blog.
It can serve the site with periodic revalidation or write it out as
static files.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&staticDir, "static", "public", "directory of user-owned static assets")
	rootCmd.AddCommand(serveCmd, buildCmd, versionCmd)
}

func initializeConfig(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil {
		log.Debugf("no .env file loaded: %v", err)
	}

	v, err := newViper(cfgFile)
	if err != nil {
		return err
	}
	if used := v.ConfigFileUsed(); used != "" {
		log.Infof("using config file %s", used)
	}
	if f := cmd.Flags().Lookup("addr"); f != nil {
		if err := v.BindPFlag("addr", f); err != nil {
			return err
		}
	}
	siteConfig = siteConfigFrom(v)
	return nil
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eringen/galleryreport"
)

// version is set at build time via ldflags.
var version = "dev"

type globalFlags struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	var g globalFlags
	root := &cobra.Command{
		Use:   "galleryreport",
		Short: "Report blog posts that embed photo galleries",
		Long: `galleryreport lists published posts containing [gallery] shortcodes,
with the number of galleries, photos per gallery, and the total size of
the referenced attachments on disk.

Configuration comes from an optional YAML file, .env files, and
GALLERYREPORT_* environment variables.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newServeCmd(&g))
	root.AddCommand(newReportCmd(&g))
	root.AddCommand(newImportCmd(&g))
	root.AddCommand(newPostCmd(&g))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the galleryreport version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "galleryreport %s\n", version)
		},
	})
	return root
}

// openApp loads configuration, builds the logger, and opens the store.
// The caller must Close the returned App.
func openApp(g *globalFlags) (*galleryreport.App, error) {
	cfg, err := galleryreport.LoadConfig(g.configPath)
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if g.verbose {
		level = "debug"
	}
	logger, err := galleryreport.NewLogger(level, cfg.LogDevelopment)
	if err != nil {
		return nil, err
	}
	app := galleryreport.New(cfg, galleryreport.WithLogger(logger))
	if err := app.Open(); err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return app, nil
}

func closeApp(app *galleryreport.App) {
	if err := app.Close(); err != nil {
		app.Logger.Warn("close", zap.Error(err))
	}
	_ = app.Logger.Sync()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

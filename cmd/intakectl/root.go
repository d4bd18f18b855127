package main

import (
	"github.com/spf13/cobra"

	"swimintake/internal/catalog"
)

// rootOptions are the flags shared by every subcommand
type rootOptions struct {
	catalogPath string
	verbose     bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "intakectl",
		Short: "Operate the swim school intake service",
		Long: `intakectl runs the intake decision logic from the command line and
manages the stored submissions of an intake server.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.catalogPath, "catalog", "", "catalog YAML file (default: embedded catalog)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose logging")

	cmd.AddCommand(
		newLevelCmd(opts),
		newMatchCmd(opts),
		newCatalogCmd(opts),
		newExportCmd(opts),
		newImportCmd(opts),
		newHashPasswordCmd(),
	)
	return cmd
}

func (o *rootOptions) loadCatalog() (*catalog.Catalog, error) {
	if o.catalogPath == "" {
		return catalog.Default()
	}
	return catalog.Load(o.catalogPath)
}

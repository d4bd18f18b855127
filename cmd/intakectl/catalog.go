package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"swimintake/internal/catalog"
)

func newCatalogCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the intake catalog",
	}

	var file string
	validate := &cobra.Command{
		Use:   "validate",
		Short: "Load a catalog file and report what it contains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := file
			if path == "" {
				path = root.catalogPath
			}

			var (
				c   *catalog.Catalog
				err error
			)
			if path == "" {
				path = "(embedded)"
				c, err = catalog.Default()
			} else {
				c, err = catalog.Load(path)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Catalog %s is valid\n", path)
			fmt.Fprintf(out, "  locations:    %d\n", len(c.Locations()))
			fmt.Fprintf(out, "  days:         %d\n", len(c.Days()))
			fmt.Fprintf(out, "  time windows: %d\n", len(c.TimeWindows()))
			fmt.Fprintf(out, "  questions:    %d\n", len(c.Questions()))
			fmt.Fprintf(out, "  skills:       %d\n", len(c.Skills()))
			return nil
		},
	}
	validate.Flags().StringVarP(&file, "file", "f", "", "catalog YAML file to check")

	cmd.AddCommand(validate)
	return cmd
}

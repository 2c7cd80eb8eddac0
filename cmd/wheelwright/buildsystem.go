package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ZebulonRouseFrantzich/wheelwright/internal/buildsys"
)

func newBuildSystemCmd(a *app) *cobra.Command {
	var asYAML bool
	cmd := &cobra.Command{
		Use:   "build-system <sdist>",
		Short: "Show the build backend a source archive declares",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := buildsys.OpenSource(args[0])
			if err != nil {
				return err
			}
			bs, err := buildsys.Read(archive)
			if err != nil {
				return err
			}
			a.logger.Debug("read build system", "archive", archive.Name(), "format", archive.Format(), "default", bs.IsDefault())

			out := cmd.OutOrStdout()
			if asYAML {
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(bs); err != nil {
					return fmt.Errorf("encode build system: %w", err)
				}
				return enc.Close()
			}

			fmt.Fprintf(out, "backend:  %s\n", bs.Backend)
			fmt.Fprintf(out, "requires: %s\n", strings.Join(bs.Requires, ", "))
			if len(bs.BackendPath) > 0 {
				fmt.Fprintf(out, "path:     %s\n", strings.Join(bs.BackendPath, ", "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print as YAML")
	return cmd
}
